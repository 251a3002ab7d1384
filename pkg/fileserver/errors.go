package fileserver

import (
	"net/http"

	"github.com/samber/oops"
)

// Error codes carried by the oops errors returned from Resolve and Respond.
const (
	CodeForbidden = "FORBIDDEN"
	CodeNotFound  = "NOT_FOUND"
	CodeInternal  = "INTERNAL"
)

// Outcome returns the error code of err: CodeForbidden, CodeNotFound or
// CodeInternal. Errors without one of these codes count as CodeInternal.
func Outcome(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return CodeInternal
	}

	switch oopsErr.Code() {
	case CodeForbidden:
		return CodeForbidden
	case CodeNotFound:
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// StatusCode maps err to its HTTP status.
func StatusCode(err error) int {
	switch Outcome(err) {
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsForbidden reports whether err denies a path that escapes the served roots.
func IsForbidden(err error) bool { return err != nil && Outcome(err) == CodeForbidden }

// IsNotFound reports whether err reports a missing file inside a served root.
func IsNotFound(err error) bool { return err != nil && Outcome(err) == CodeNotFound }
