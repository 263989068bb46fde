package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/approveloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/cancelloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/rejectloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/requestloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/returnloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/query/borrowerloans"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/query/loandetail"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

type requestLoanBody struct {
	LoanID       *uuid.UUID `json:"loanId"`
	AssetKind    string     `json:"assetKind"`
	LoanDate     string     `json:"loanDate"`
	DurationKind string     `json:"durationKind"`
	ContactPhone string     `json:"contactPhone"`
	Attachments  []string   `json:"attachments"`
}

type returnLoanBody struct {
	Token string `json:"token"`
}

type returnTokenBody struct {
	Serial   string    `json:"serial"`
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issuedAt"`
}

type healthBody struct {
	Status string `json:"status"`
}

func actorOf(r *http.Request) identity.Actor {
	actor, _ := identity.ActorFrom(r.Context())
	return actor
}

// requestLoan handles POST /loans. A client may send its own loanId to make retries idempotent.
func (s *Server) requestLoan(w http.ResponseWriter, r *http.Request) {
	var body requestLoanBody
	if !s.decode(w, r, &body) {
		return
	}

	loanDate, err := time.Parse(time.DateOnly, body.LoanDate)
	if err != nil {
		s.badRequest(w, "loanDate must be YYYY-MM-DD")
		return
	}

	loanID := uuid.New()
	if body.LoanID != nil {
		loanID = *body.LoanID
	}

	actor := actorOf(r)
	command := requestloan.BuildCommand(
		loanID,
		actor,
		actor.ID,
		body.AssetKind,
		loanDate,
		core.DurationKind(body.DurationKind),
		body.ContactPhone,
		body.Attachments,
		s.clock.Now(),
	)

	result, err := s.handlers.RequestLoan.Handle(r.Context(), command)
	s.writeCommandResult(w, r, http.StatusCreated, loanID, result, err)
}

func (s *Server) approveLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := s.loanID(w, r)
	if !ok {
		return
	}

	result, err := s.handlers.ApproveLoan.Handle(r.Context(), approveloan.BuildCommand(loanID, actorOf(r), s.clock.Now()))
	s.writeCommandResult(w, r, http.StatusOK, loanID, result, err)
}

func (s *Server) rejectLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := s.loanID(w, r)
	if !ok {
		return
	}

	result, err := s.handlers.RejectLoan.Handle(r.Context(), rejectloan.BuildCommand(loanID, actorOf(r), s.clock.Now()))
	s.writeCommandResult(w, r, http.StatusOK, loanID, result, err)
}

func (s *Server) cancelLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := s.loanID(w, r)
	if !ok {
		return
	}

	result, err := s.handlers.CancelLoan.Handle(r.Context(), cancelloan.BuildCommand(loanID, actorOf(r), s.clock.Now()))
	s.writeCommandResult(w, r, http.StatusOK, loanID, result, err)
}

func (s *Server) returnLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := s.loanID(w, r)
	if !ok {
		return
	}

	var body returnLoanBody
	if !s.decode(w, r, &body) {
		return
	}

	command := returnloan.BuildCommand(loanID, actorOf(r), body.Token, s.clock.Now())
	result, err := s.handlers.ReturnLoan.Handle(r.Context(), command)
	s.writeCommandResult(w, r, http.StatusOK, loanID, result, err)
}

func (s *Server) loanDetail(w http.ResponseWriter, r *http.Request) {
	loanID, ok := s.loanID(w, r)
	if !ok {
		return
	}

	detail, err := s.handlers.LoanDetail.Handle(r.Context(), loandetail.BuildQuery(loanID, actorOf(r), s.clock.Now()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) myLoans(w http.ResponseWriter, r *http.Request) {
	actor := actorOf(r)

	loans, err := s.handlers.BorrowerLoans.Handle(r.Context(), borrowerloans.BuildQuery(actor.ID, actor))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loans)
}

// returnToken handles GET /assets/{serial}/return-token for admins printing the QR code of a bike.
func (s *Server) returnToken(w http.ResponseWriter, r *http.Request) {
	actor := actorOf(r)
	if err := identity.RequireAdmin(actor); err != nil {
		s.writeError(w, r, err)
		return
	}

	serial := mux.Vars(r)["serial"]

	if _, err := s.handlers.Assets.AssetBySerial(r.Context(), serial); err != nil {
		s.writeError(w, r, err)
		return
	}

	now := s.clock.Now()

	token, err := s.handlers.Tokens.Encode(serial, now)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, returnTokenBody{Serial: serial, Token: token, IssuedAt: now})
}

func (s *Server) overdueSweep(w http.ResponseWriter, r *http.Request) {
	report, _, err := s.handlers.OverdueSweep.Trigger(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) notificationSweep(w http.ResponseWriter, r *http.Request) {
	report, _, err := s.handlers.NotificationSweep.Trigger(r.Context())
	// failed deliveries stay unnotified for the next sweep and are reported in Failed
	if err != nil && report.Failed == 0 {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.handlers.Health != nil {
		if err := s.handlers.Health(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, healthBody{Status: "unavailable"})
			return
		}
	}

	s.writeJSON(w, http.StatusOK, healthBody{Status: "ok"})
}
