package httpapi

import (
	"errors"
	"net/http"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
)

// Error codes returned in the "code" field.
const (
	CodeInvalidTransition  = "invalid_transition"
	CodeInvalidReturnToken = "invalid_return_token"
	CodeAssetUnavailable   = "asset_unavailable"
	CodeNoAssetAvailable   = "no_asset_available"
	CodeInvalidLoanRequest = "invalid_loan_request"
	CodeLoanNotFound       = "loan_not_found"
	CodeAssetNotFound      = "asset_not_found"
	CodeBorrowerNotFound   = "borrower_not_found"
	CodeForbidden          = "forbidden"
	CodeUnauthenticated    = "unauthenticated"
	CodeBadRequest         = "bad_request"
	CodeInternal           = "internal"
	CodeUnavailable        = "unavailable"
)

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{core.ErrNotAuthorized, CodeForbidden, http.StatusForbidden},
	{core.ErrLoanNotFound, CodeLoanNotFound, http.StatusNotFound},
	{core.ErrAssetNotFound, CodeAssetNotFound, http.StatusNotFound},
	{core.ErrBorrowerNotFound, CodeBorrowerNotFound, http.StatusNotFound},
	{core.ErrInvalidLoanRequest, CodeInvalidLoanRequest, http.StatusUnprocessableEntity},
	{core.ErrInvalidReturnToken, CodeInvalidReturnToken, http.StatusUnprocessableEntity},
	{core.ErrInvalidTransition, CodeInvalidTransition, http.StatusConflict},
	{core.ErrAssetUnavailable, CodeAssetUnavailable, http.StatusConflict},
	{core.ErrNoAssetAvailable, CodeNoAssetAvailable, http.StatusConflict},
}

// errorBody is the JSON shape of every failure.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classifyError maps a handler error to a status and body. Infrastructure details are not exposed.
func classifyError(err error) (int, errorBody) {
	if shell.Classify(err) != shell.OutcomeInfrastructure {
		for _, c := range errorCodes {
			if errors.Is(err, c.err) {
				return c.status, errorBody{Code: c.code, Message: err.Error()}
			}
		}
	}

	if shell.IsTimeoutError(err) {
		return http.StatusServiceUnavailable, errorBody{Code: CodeUnavailable, Message: "the request timed out"}
	}

	return http.StatusInternalServerError, errorBody{Code: CodeInternal, Message: "internal error"}
}
