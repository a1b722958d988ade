package domain

import "errors"

var (
	ErrGenerateBlocked     = errors.New("generate_blocked")
	ErrRenderFailed        = errors.New("render_failed")
	ErrSessionNotFound     = errors.New("session_not_found")
	ErrItemNotFound        = errors.New("item_not_found")
	ErrUnsupportedCurrency = errors.New("unsupported_currency")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrInvalidFormat       = errors.New("invalid_format")
)

// RenderError reports a failure of the document generator. It matches
// ErrRenderFailed under errors.Is and unwraps to the generator's cause.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return ErrRenderFailed.Error()
	}
	return ErrRenderFailed.Error() + ": " + e.Err.Error()
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRenderFailed }
