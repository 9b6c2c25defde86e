package usecase

import "errors"

// Sentinel errors let handlers choose a status code without inspecting
// message text.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
)

func invalidInput(msg string) error {
	return wrapped{ErrInvalidInput, msg}
}

func forbidden(msg string) error {
	return wrapped{ErrForbidden, msg}
}

func notFound(msg string) error {
	return wrapped{ErrNotFound, msg}
}

type wrapped struct {
	sentinel error
	msg      string
}

func (w wrapped) Error() string { return w.msg }
func (w wrapped) Unwrap() error { return w.sentinel }
