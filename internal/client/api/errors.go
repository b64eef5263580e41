package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a non-2xx answer from the server, decoded from its JSON body.
type Error struct {
	Code       int         `json:"-"`
	Message    string      `json:"error"`
	Redirect   string      `json:"redirect,omitempty"`
	Alert      bool        `json:"alert,omitempty"`
	CanAdvance *bool       `json:"can_advance,omitempty"`
	Status     string      `json:"status,omitempty"`
	Wizard     *WizardView `json:"wizard,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return e.Message
}

// Is lets errors.Is(err, ErrUnauthorized) match a 401 answer.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Code == http.StatusUnauthorized
}

// AsError unwraps a server *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
