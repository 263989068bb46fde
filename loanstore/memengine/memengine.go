package memengine

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

const (
	logMsgChangeDropped  = "status change dropped, subscriber buffer full"
	logAttrLoanID        = "loan_id"
	defaultSubscribeSize = 64
)

// Engine keeps loans, assets and borrower contacts in memory.
type Engine struct {
	mu          sync.Mutex
	loans       map[uuid.UUID]core.Loan
	claims      map[uuid.UUID]time.Time
	assets      map[core.AssetSerialString]core.Asset
	borrowers   map[core.BorrowerIDString]core.Borrower
	subscribers map[int]chan loanstore.StatusChange
	nextSubID   int
	logger      loanstore.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the Engine.
func WithLogger(logger loanstore.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an empty Engine.
func NewEngine(options ...Option) *Engine {
	e := &Engine{
		loans:       make(map[uuid.UUID]core.Loan),
		claims:      make(map[uuid.UUID]time.Time),
		assets:      make(map[core.AssetSerialString]core.Asset),
		borrowers:   make(map[core.BorrowerIDString]core.Borrower),
		subscribers: make(map[int]chan loanstore.StatusChange),
	}

	for _, option := range options {
		option(e)
	}

	return e
}

// Subscribe returns a channel receiving a StatusChange every time a loan turns Overdue.
// Delivery never blocks a writer; when the buffer is full the change is dropped and
// the periodic notification sweep picks the loan up instead.
func (e *Engine) Subscribe(buffer int) (<-chan loanstore.StatusChange, func()) {
	if buffer <= 0 {
		buffer = defaultSubscribeSize
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSubID
	e.nextSubID++

	ch := make(chan loanstore.StatusChange, buffer)
	e.subscribers[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()

			delete(e.subscribers, id)
			close(ch)
		})
	}

	return ch, unsubscribe
}

// LoanByID implements loanstore.LoanReader.
func (e *Engine) LoanByID(_ context.Context, loanID uuid.UUID) (core.Loan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	loan, ok := e.loans[loanID]
	if !ok {
		return core.Loan{}, core.ErrLoanNotFound
	}

	return copyLoan(loan), nil
}

// LoansByStatus implements loanstore.LoanReader.
func (e *Engine) LoansByStatus(_ context.Context, status core.LoanStatus) ([]core.Loan, error) {
	return e.selectLoans(func(l core.Loan) bool { return l.Status == status }, byDueDate), nil
}

// LoansByBorrower implements loanstore.LoanReader.
func (e *Engine) LoansByBorrower(_ context.Context, borrowerID core.BorrowerIDString) ([]core.Loan, error) {
	return e.selectLoans(func(l core.Loan) bool { return l.BorrowerID == borrowerID }, byNewestFirst), nil
}

// OverdueUnnotifiedLoans implements loanstore.LoanReader.
func (e *Engine) OverdueUnnotifiedLoans(_ context.Context) ([]core.Loan, error) {
	return e.selectLoans(core.Loan.NeedsLateNotice, byDueDate), nil
}

// AssetBySerial implements loanstore.AssetReader.
func (e *Engine) AssetBySerial(_ context.Context, serial core.AssetSerialString) (core.Asset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	asset, ok := e.assets[serial]
	if !ok {
		return core.Asset{}, core.ErrAssetNotFound
	}

	return asset, nil
}

// FindAvailableAsset implements loanstore.AssetReader.
// It returns the Available asset of the kind with the lowest serial that no open loan references.
func (e *Engine) FindAvailableAsset(_ context.Context, kind string) (core.Asset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reserved := make(map[core.AssetSerialString]bool)
	for _, loan := range e.loans {
		if loan.Status.IsOpen() {
			reserved[loan.AssetSerial] = true
		}
	}

	var candidates []core.Asset
	for _, asset := range e.assets {
		if asset.Status == core.AssetAvailable && strings.EqualFold(asset.Kind, kind) && !reserved[asset.Serial] {
			candidates = append(candidates, asset)
		}
	}

	if len(candidates) == 0 {
		return core.Asset{}, core.ErrNoAssetAvailable
	}

	slices.SortFunc(candidates, func(a, b core.Asset) int { return strings.Compare(a.Serial, b.Serial) })

	return candidates[0], nil
}

// BorrowerContact implements loanstore.BorrowerDirectory.
func (e *Engine) BorrowerContact(_ context.Context, borrowerID core.BorrowerIDString) (core.Borrower, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	borrower, ok := e.borrowers[borrowerID]
	if !ok {
		return core.Borrower{}, core.ErrBorrowerNotFound
	}

	return borrower, nil
}

// InsertLoan implements loanstore.LoanWriter.
func (e *Engine) InsertLoan(_ context.Context, loan core.Loan) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.loans[loan.ID]; exists {
		return loanstore.ErrConcurrencyConflict
	}

	if _, ok := e.assets[loan.AssetSerial]; !ok {
		return core.ErrAssetNotFound
	}

	for _, other := range e.loans {
		if other.AssetSerial == loan.AssetSerial && other.Status.IsOpen() {
			return loanstore.ErrConcurrencyConflict
		}
	}

	e.loans[loan.ID] = copyLoan(loan)

	return nil
}

// ApplyTransition implements loanstore.LoanWriter.
func (e *Engine) ApplyTransition(_ context.Context, req loanstore.TransitionRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	loan, ok := e.loans[req.LoanID]
	if !ok {
		return core.ErrLoanNotFound
	}

	if loan.Status != req.Transition.From {
		return loanstore.ErrPreconditionFailed
	}

	asset, assetExists := e.assets[loan.AssetSerial]

	switch req.Transition.AssetEffect {
	case core.AssetEffectBorrow:
		if !assetExists || asset.Status != core.AssetAvailable {
			return core.ErrAssetUnavailable
		}
		asset.Status = core.AssetBorrowed
	case core.AssetEffectRelease:
		if assetExists && asset.Status != core.AssetUnderMaintenance {
			asset.Status = core.AssetAvailable
		}
	case core.AssetEffectNone:
	}

	loan.Status = req.Transition.To
	loan.UpdatedAt = req.OccurredAt
	e.loans[loan.ID] = loan

	if assetExists {
		e.assets[asset.Serial] = asset
	}

	if loan.Status == core.StatusOverdue {
		e.publish(loanstore.StatusChange{LoanID: loan.ID, Status: loan.Status})
	}

	return nil
}

// ClaimLateNotice implements loanstore.LateNoticeLedger.
func (e *Engine) ClaimLateNotice(_ context.Context, loanID uuid.UUID, now, leaseUntil time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	loan, ok := e.loans[loanID]
	if !ok || !loan.NeedsLateNotice() {
		return loanstore.ErrPreconditionFailed
	}

	if claimedUntil, claimed := e.claims[loanID]; claimed && claimedUntil.After(now) {
		return loanstore.ErrPreconditionFailed
	}

	e.claims[loanID] = leaseUntil

	return nil
}

// CompleteLateNotice implements loanstore.LateNoticeLedger.
func (e *Engine) CompleteLateNotice(_ context.Context, loanID uuid.UUID, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	loan, ok := e.loans[loanID]
	if !ok || loan.NotificationSent {
		return loanstore.ErrPreconditionFailed
	}

	loan.NotificationSent = true
	loan.UpdatedAt = core.ToOccurredAt(at)
	e.loans[loanID] = loan
	delete(e.claims, loanID)

	return nil
}

// ReleaseLateNotice implements loanstore.LateNoticeLedger.
func (e *Engine) ReleaseLateNotice(_ context.Context, loanID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.claims, loanID)

	return nil
}

// SaveAsset implements loanstore.Inventory.
func (e *Engine) SaveAsset(_ context.Context, asset core.Asset) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.assets[asset.Serial] = asset

	return nil
}

// SaveBorrower implements loanstore.Inventory.
func (e *Engine) SaveBorrower(_ context.Context, borrower core.Borrower) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.borrowers[borrower.ID] = borrower

	return nil
}

// publish must be called with e.mu held.
func (e *Engine) publish(change loanstore.StatusChange) {
	for _, ch := range e.subscribers {
		select {
		case ch <- change:
		default:
			if e.logger != nil {
				e.logger.Warn(logMsgChangeDropped, logAttrLoanID, change.LoanID.String())
			}
		}
	}
}

func (e *Engine) selectLoans(keep func(core.Loan) bool, order func(a, b core.Loan) int) []core.Loan {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]core.Loan, 0)
	for _, loan := range e.loans {
		if keep(loan) {
			out = append(out, copyLoan(loan))
		}
	}

	slices.SortFunc(out, order)

	return out
}

func byDueDate(a, b core.Loan) int {
	if c := a.DueDate.Compare(b.DueDate); c != 0 {
		return c
	}

	return strings.Compare(a.ID.String(), b.ID.String())
}

func byNewestFirst(a, b core.Loan) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}

	return strings.Compare(a.ID.String(), b.ID.String())
}

func copyLoan(loan core.Loan) core.Loan {
	loan.Attachments = slices.Clone(loan.Attachments)
	return loan
}

var _ loanstore.Store = (*Engine)(nil)
