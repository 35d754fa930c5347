package core

import (
	"errors"
	"fmt"
)

// Stable machine-readable rejection codes. Clients branch on these instead
// of matching message prose.
const (
	CodeAuthRequired         = "AUTH_REQUIRED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeInsufficientPerms    = "INSUFFICIENT_PERMISSIONS"
	CodeReadOnlyRequired     = "READ_ONLY_REQUIRED"
	CodeInvalidPagination    = "INVALID_PAGINATION"
	CodeConnectionNotFound   = "CONNECTION_NOT_FOUND"
	CodeQueryExecutionFailed = "QUERY_EXECUTION_FAILED"
	CodeSchemaFetchFailed    = "SCHEMA_FETCH_FAILED"
)

// CodedError carries a stable code alongside the human-readable message.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error { return e.Err }

// AsCoded extracts a CodedError from err's chain, or nil.
func AsCoded(err error) *CodedError {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

var (
	ErrAuthRequired = &CodedError{Code: CodeAuthRequired, Message: "authentication required"}

	// ErrInvalidCredentials is returned identically for unknown username,
	// inactive account, and wrong password, so callers cannot enumerate
	// usernames.
	ErrInvalidCredentials = &CodedError{Code: CodeInvalidCredentials, Message: "invalid username or password"}

	ErrConnectionNotFound = &CodedError{Code: CodeConnectionNotFound, Message: "connection not found"}
)

// ErrInsufficientPermissions records the role and attempted action for
// observability.
func ErrInsufficientPermissions(role Role, action string) *CodedError {
	return &CodedError{
		Code:    CodeInsufficientPerms,
		Message: fmt.Sprintf("role %s is not permitted to %s", role, action),
	}
}

// ErrReadOnlyRequired rejects a mutating statement from a read-only role.
func ErrReadOnlyRequired(role Role) *CodedError {
	return &CodedError{
		Code:    CodeReadOnlyRequired,
		Message: fmt.Sprintf("role %s may only execute read-only statements", role),
	}
}

func ErrInvalidPagination(msg string) *CodedError {
	return &CodedError{Code: CodeInvalidPagination, Message: msg}
}

// ErrQueryExecutionFailed wraps a driver error, passing its message through
// verbatim. The caller is already entitled to run arbitrary SQL against the
// target, so leaking the driver message is acceptable.
func ErrQueryExecutionFailed(err error) *CodedError {
	return &CodedError{Code: CodeQueryExecutionFailed, Message: err.Error(), Err: err}
}

func ErrSchemaFetchFailed(err error) *CodedError {
	return &CodedError{Code: CodeSchemaFetchFailed, Message: err.Error(), Err: err}
}
