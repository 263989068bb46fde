package loandetail

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

const (
	queryType = "LoanDetail"
)

// Query represents the intent to view one loan.
type Query struct {
	LoanID uuid.UUID
	Actor  identity.Actor
	Now    time.Time
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(loanID uuid.UUID, actor identity.Actor, now time.Time) Query {
	return Query{
		LoanID: loanID,
		Actor:  actor,
		Now:    now,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
