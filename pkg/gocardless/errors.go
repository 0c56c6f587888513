package gocardless

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by Client operations. The underlying provider
// response is logged at the call site; callers dispatch with errors.Is.
var (
	ErrCredentialsMissing  = errors.New("gocardless: credentials not configured")
	ErrAuthentication      = errors.New("gocardless: authentication failed")
	ErrInstitutions        = errors.New("gocardless: failed to fetch institutions")
	ErrCreateRequisition   = errors.New("gocardless: failed to create requisition")
	ErrRequisition         = errors.New("gocardless: failed to fetch requisition")
	ErrAccountDetails      = errors.New("gocardless: failed to fetch account details")
	ErrAccountBalances     = errors.New("gocardless: failed to fetch account balances")
	ErrAccountTransactions = errors.New("gocardless: failed to fetch account transactions")
)

// APIError is a non-2xx response from the provider, carried unchanged so
// callers can inspect the status and raw body.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gocardless: unexpected status %d: %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
