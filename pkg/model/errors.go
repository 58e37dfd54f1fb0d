package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrTagValidation marks malformed or missing caller input
	ErrTagValidation = goerr.NewTag("validation")

	// ErrTagBackendUnavailable marks a durable store failure that should be
	// served by the fallback store instead
	ErrTagBackendUnavailable = goerr.NewTag("backend_unavailable")

	// ErrTagPartialWrite marks a stored record whose recency index entry could
	// not be written
	ErrTagPartialWrite = goerr.NewTag("partial_write")

	// ErrTagMethodNotFound marks a call to an unknown tool
	ErrTagMethodNotFound = goerr.NewTag("method_not_found")

	// ErrTagInternal marks anything unanticipated
	ErrTagInternal = goerr.NewTag("internal")
)

// ErrorKind is the category of an error as reported to tool callers
type ErrorKind string

const (
	ErrorKindValidation     ErrorKind = "ValidationError"
	ErrorKindMethodNotFound ErrorKind = "MethodNotFound"
	ErrorKindInternal       ErrorKind = "InternalError"
)

// KindOf classifies err into one of the categories allowed to cross the tool
// boundary. Untagged errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case goerr.HasTag(err, ErrTagValidation):
		return ErrorKindValidation
	case goerr.HasTag(err, ErrTagMethodNotFound):
		return ErrorKindMethodNotFound
	default:
		return ErrorKindInternal
	}
}
