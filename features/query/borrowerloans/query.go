package borrowerloans

import (
	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

const (
	queryType = "BorrowerLoans"
)

// Query represents the intent to list the loans of a borrower.
type Query struct {
	BorrowerID core.BorrowerIDString
	Actor      identity.Actor
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(borrowerID core.BorrowerIDString, actor identity.Actor) Query {
	return Query{
		BorrowerID: borrowerID,
		Actor:      actor,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
