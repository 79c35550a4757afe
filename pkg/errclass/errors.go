// Package errclass defines the stable, machine-readable error classes
// returned by SafeChecks packages.
package errclass

import "fmt"

// CodedError is a stable, machine-readable error class.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Is(target error) bool {
	t, ok := target.(*CodedError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new CodedError with the same Code but a specific message.
func (e *CodedError) WithMessage(msg string) *CodedError {
	return &CodedError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new CodedError with a formatted message.
func (e *CodedError) WithMessagef(format string, args ...any) *CodedError {
	return &CodedError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Error classes.
var (
	// ErrValidation is returned before any mutation when input is incomplete or malformed.
	ErrValidation = &CodedError{Code: "E_VALIDATION"}

	// ErrNotConfigured means no remote endpoint is set.
	ErrNotConfigured = &CodedError{Code: "E_NOT_CONFIGURED"}

	// ErrTransport covers network failures and non-2xx responses.
	ErrTransport = &CodedError{Code: "E_TRANSPORT"}

	// ErrRemote is an explicit error status reported by the row store.
	ErrRemote = &CodedError{Code: "E_REMOTE"}

	// ErrParse is a remote row or payload that could not be decoded.
	ErrParse = &CodedError{Code: "E_PARSE"}

	ErrNotFound           = &CodedError{Code: "E_NOT_FOUND"}
	ErrStore              = &CodedError{Code: "E_STORE"}
	ErrFormatUnsupported  = &CodedError{Code: "E_FORMAT_UNSUPPORTED"}
	ErrWorkspaceMissing   = &CodedError{Code: "E_WORKSPACE_MISSING"}
	ErrJournalChainBroken = &CodedError{Code: "E_JOURNAL_CHAIN_BROKEN"}
)

// All returns every error class, in declaration order.
func All() []*CodedError {
	return []*CodedError{
		ErrValidation,
		ErrNotConfigured,
		ErrTransport,
		ErrRemote,
		ErrParse,
		ErrNotFound,
		ErrStore,
		ErrFormatUnsupported,
		ErrWorkspaceMissing,
		ErrJournalChainBroken,
	}
}
