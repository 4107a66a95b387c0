package services

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeValidation   = "BLOG_VALIDATION_FAILED"
	textCodeUnauthorized = "BLOG_UNAUTHORIZED"
	textCodeBackend      = "BLOG_BACKEND_ERROR"
	textCodeTransport    = "BLOG_TRANSPORT_ERROR"
)

var (
	// ErrUnauthorized is reported when the backend answers 401. The stored
	// credentials have already been cleared when callers see it.
	ErrUnauthorized = errors.New("please log in first")
	// ErrNotAuthenticated is returned by the session store when no token is held.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// APIError is a failure reported by the backend, either through a non-2xx
// status or an envelope code other than 200/201.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed (code %d)", e.Code)
	}
	return e.Message
}

func wrapValidation(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid request").
		WithTextCode(textCodeValidation)
}

func wrapUnauthorized() error {
	return goerrors.Wrap(ErrUnauthorized, goerrors.CategoryAuth, ErrUnauthorized.Error()).
		WithTextCode(textCodeUnauthorized)
}

func wrapBackend(err *APIError) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, err.Error()).
		WithTextCode(textCodeBackend)
}

func wrapTransport(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "backend unreachable").
		WithTextCode(textCodeTransport)
}

// IsValidation reports whether err was rejected before reaching the backend.
func IsValidation(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryValidation)
}

// IsUnauthorized reports whether err means the session is gone.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || goerrors.IsCategory(err, goerrors.CategoryAuth)
}

// Message picks the text a front end should show for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if IsUnauthorized(err) {
		return ErrUnauthorized.Error()
	}
	var verrs validationErrors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	return err.Error()
}
