package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrAuthExpired      = errors.New("access credential expired")
	ErrAuthFailed       = errors.New("authentication required")
	ErrServer           = errors.New("server error")
	ErrNetwork          = errors.New("network error")
	ErrTemporary        = errors.New("temporary failure")
	ErrNotFound         = errors.New("not found")
	ErrActionInProgress = errors.New("action already in progress")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// Invalid builds a validation error that never reaches the network layer.
func Invalid(operation, message string) error {
	return fmt.Errorf("%s: %w: %s", operation, ErrInvalidInput, message)
}

// AuthRedirectError tells the caller that credentials were cleared and the
// user has to authenticate again at RedirectTo.
type AuthRedirectError struct {
	RedirectTo string
	Cause      error
}

func (e *AuthRedirectError) Error() string {
	if e == nil {
		return "authentication required"
	}
	if e.Cause == nil {
		return fmt.Sprintf("authentication required: redirect to %s", e.RedirectTo)
	}
	return fmt.Sprintf("authentication required: redirect to %s: %v", e.RedirectTo, e.Cause)
}

func (e *AuthRedirectError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return []error{ErrAuthFailed}
	}
	return []error{ErrAuthFailed, e.Cause}
}

// AsAuthRedirect extracts the redirect signal from err, if any.
func AsAuthRedirect(err error) (*AuthRedirectError, bool) {
	var redirect *AuthRedirectError
	if errors.As(err, &redirect) {
		return redirect, true
	}
	return nil, false
}

// DetailedError is implemented by errors carrying a server-provided detail.
type DetailedError interface {
	error
	ServerDetail() string
}

// UserMessage returns the server-provided detail when err carries one, else generic.
func UserMessage(err error, generic string) string {
	var detailed DetailedError
	if errors.As(err, &detailed) {
		if detail := strings.TrimSpace(detailed.ServerDetail()); detail != "" {
			return detail
		}
	}
	return generic
}
