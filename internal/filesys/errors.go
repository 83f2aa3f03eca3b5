package filesys

import (
	"fmt"

	"nachos/internal/statuscode"
)

// Error pairs a recoverable status code with a human-readable message, the
// same shape the teacher's diskimage.StatusError gives callers so they can
// map a failure straight onto a response/exit code without string-matching
// (internal/diskimage/d64_write.go's StatusError/newStatusErr).
type Error struct {
	Code statuscode.Code
	msg  string
}

func (e *Error) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("filesys: %s", e.Code)
	}
	return e.msg
}

func (e *Error) Status() statuscode.Code { return e.Code }

func newError(code statuscode.Code, format string, args ...any) error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...)}
}

// StatusOf extracts the statuscode.Code from err if it carries one, or
// statuscode.Internal otherwise, so a caller can branch on the failure kind
// without caring about the underlying error type.
func StatusOf(err error) statuscode.Code {
	if err == nil {
		return statuscode.OK
	}
	var se *Error
	if as(err, &se) {
		return se.Code
	}
	return statuscode.Internal
}

// as is a tiny errors.As wrapper kept local so this file doesn't need to
// import both "errors" (stdlib) and github.com/pkg/errors under the same
// name; pkg/errors' wrapped errors still satisfy stdlib errors.As via
// Unwrap/Cause.
func as(err error, target **Error) bool {
	for err != nil {
		if se, ok := err.(*Error); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
