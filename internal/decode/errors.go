package decode

import "fmt"

// Kind classifies a decoding failure.
type Kind string

const (
	KindInvalidBase64 Kind = "invalid_base64"
	KindInvalidImage  Kind = "invalid_image"
	KindInvalidAudio  Kind = "invalid_audio"
)

// Error is returned for every decoding failure. Handlers map it to a 400.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}
