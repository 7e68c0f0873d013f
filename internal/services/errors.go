package services

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrStorage      = errors.New("storage error")
)

// Error pairs a taxonomy sentinel with a message that is safe to show clients.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error { return &Error{Kind: kind, Msg: msg} }

const (
	MsgMissingData        = "Missing data"
	MsgEmailTaken         = "Email already registered"
	MsgUnknownRole        = "Unknown role"
	MsgInvalidCredentials = "Invalid credentials"
	MsgUserNotFound       = "User not found"
	MsgInternal           = "Internal server error"
)

// Message returns the client-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return MsgMissingData
	case errors.Is(err, ErrConflict):
		return MsgEmailTaken
	case errors.Is(err, ErrUnauthorized):
		return MsgInvalidCredentials
	case errors.Is(err, ErrNotFound):
		return MsgUserNotFound
	}
	return MsgInternal
}

// outcome labels err for the auth events counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "storage_error"
}
