package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/approveloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/cancelloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/rejectloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/requestloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/returnloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/notify/latenotice"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/query/borrowerloans"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/query/loandetail"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/sweep/markoverdue"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/clock"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	maxBodyBytes = 1 << 20

	logMsgInternalError = "request failed"
	logMsgWriteFailed   = "writing response failed"
	logAttrError        = "error"
	logAttrRoute        = "route"
)

// Verifier turns a bearer token into an actor.
type Verifier interface {
	Verify(raw string) (identity.Actor, error)
}

// Trigger runs a sweep now or joins the run in progress.
type Trigger[R any] interface {
	Trigger(ctx context.Context) (R, bool, error)
}

// TokenIssuer issues return tokens for a bike.
type TokenIssuer interface {
	Encode(serial string, now time.Time) (string, error)
}

// AssetReader checks that a bike exists before a token is issued for it.
type AssetReader interface {
	AssetBySerial(ctx context.Context, serial core.AssetSerialString) (core.Asset, error)
}

// Handlers are the use cases behind the routes.
type Handlers struct {
	RequestLoan       shell.CoreCommandHandler[requestloan.Command]
	ApproveLoan       shell.CoreCommandHandler[approveloan.Command]
	RejectLoan        shell.CoreCommandHandler[rejectloan.Command]
	CancelLoan        shell.CoreCommandHandler[cancelloan.Command]
	ReturnLoan        shell.CoreCommandHandler[returnloan.Command]
	LoanDetail        shell.CoreQueryHandler[loandetail.Query, loandetail.LoanDetail]
	BorrowerLoans     shell.CoreQueryHandler[borrowerloans.Query, borrowerloans.BorrowerLoans]
	OverdueSweep      Trigger[markoverdue.SweepReport]
	NotificationSweep Trigger[latenotice.SweepReport]
	Tokens            TokenIssuer
	Assets            AssetReader
	Health            func(ctx context.Context) error
}

// Server routes HTTP requests to the handlers.
type Server struct {
	handlers   Handlers
	verifier   Verifier
	cronSecret string
	clock      clock.Clock
	logger     loanstore.Logger
	router     *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for command timestamps and the lazy overdue check.
func WithClock(c clock.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// WithLogger sets the logger for failed requests.
func WithLogger(logger loanstore.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server and registers all routes.
func NewServer(handlers Handlers, verifier Verifier, cronSecret string, opts ...Option) *Server {
	s := &Server{
		handlers:   handlers,
		verifier:   verifier,
		cronSecret: cronSecret,
		clock:      clock.NewSystem(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(s.authenticate)
	api.HandleFunc("/loans", s.requestLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}", s.loanDetail).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}/approve", s.approveLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}/reject", s.rejectLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}/cancel", s.cancelLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}/return", s.returnLoan).Methods(http.MethodPost)
	api.HandleFunc("/borrowers/me/loans", s.myLoans).Methods(http.MethodGet)
	api.HandleFunc("/assets/{serial}/return-token", s.returnToken).Methods(http.MethodGet)

	cron := router.PathPrefix("/cron").Subrouter()
	cron.Use(s.cronOnly)
	cron.HandleFunc("/overdue-sweep", s.overdueSweep).Methods(http.MethodPost)
	cron.HandleFunc("/notification-sweep", s.notificationSweep).Methods(http.MethodPost)

	return router
}

// commandBody is the JSON shape of a command outcome.
type commandBody struct {
	Outcome    string    `json:"outcome"`
	LoanID     uuid.UUID `json:"loanId"`
	Superseded bool      `json:"superseded,omitempty"`
	Attempts   int       `json:"attempts"`
}

func (s *Server) writeCommandResult(w http.ResponseWriter, r *http.Request, status int, loanID uuid.UUID, result shell.HandlerResult, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	outcome := shell.StatusSuccess
	if result.Idempotent {
		outcome = shell.StatusIdempotent
		status = http.StatusOK
	}

	s.writeJSON(w, status, commandBody{
		Outcome:    outcome,
		LoanID:     loanID,
		Superseded: result.Superseded,
		Attempts:   result.RetryAttempts,
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classifyError(err)

	if status >= http.StatusInternalServerError && s.logger != nil {
		s.logger.Error(logMsgInternalError, logAttrRoute, r.URL.Path, logAttrError, err.Error())
	}

	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil && s.logger != nil {
		s.logger.Warn(logMsgWriteFailed, logAttrError, err.Error())
	}
}

func (s *Server) badRequest(w http.ResponseWriter, message string) {
	s.writeJSON(w, http.StatusBadRequest, errorBody{Code: CodeBadRequest, Message: message})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(into); err != nil {
		s.badRequest(w, "malformed JSON body: "+err.Error())
		return false
	}

	return true
}

func (s *Server) loanID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.badRequest(w, "loan id must be a UUID")
		return uuid.Nil, false
	}

	return id, true
}
