package api

import "fmt"

// AuthError indicates the session could not establish or keep a valid token:
// the token request itself failed, the token response was unusable, or the
// provider rejected the refreshed token again within one operation. It is
// fatal to the current operation.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// StatusError reports a response with an unexpected HTTP status code.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}
