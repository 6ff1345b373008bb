package validation

import "strings"

// Error carries a failed Result out of a service call.
type Error struct {
	Result *Result
}

func (e *Error) Error() string {
	if e == nil || e.Result == nil {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Result.Errors, "; ")
}
