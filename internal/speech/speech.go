// Package speech turns PCM audio into a transcript.
package speech

import (
	"context"
	"errors"
	"fmt"

	"github.com/vipulchinmay/projectaushadX/internal/decode"
)

// ErrUnrecognized means the engine heard no intelligible speech.
var ErrUnrecognized = errors.New("speech not recognized")

// ServiceError wraps a transport failure or an error reply from the engine.
type ServiceError struct {
	Status int
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("status %d: %v", e.Status, e.Err)
	}
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Recognizer is the speech side of the recognition adapter.
type Recognizer interface {
	Transcribe(ctx context.Context, pcm decode.PCM) (string, error)
}
