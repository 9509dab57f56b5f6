// Package ocr turns decoded images into canonical extracted text.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vipulchinmay/projectaushadX/internal/decode"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
)

// Engine returns the text fragments found in an image, in reading order.
type Engine interface {
	Fragments(ctx context.Context, img decode.Image) ([]string, error)
}

// Result is the canonical output of recognition.
type Result struct {
	Text      string
	IsEmpty   bool
	Fragments []string
}

// Recognizer adapts an Engine to the canonical Result.
type Recognizer struct {
	Engine Engine
}

// NewRecognizer wraps engine.
func NewRecognizer(engine Engine) *Recognizer {
	return &Recognizer{Engine: engine}
}

// Recognize runs the engine and joins its fragments with single spaces.
// An image without text yields IsEmpty, not an error.
func (r *Recognizer) Recognize(ctx context.Context, img decode.Image) (Result, error) {
	start := time.Now()
	fragments, err := r.Engine.Fragments(ctx, img)
	metrics.ObserveStage("ocr", time.Since(start))
	if err != nil {
		return Result{}, fmt.Errorf("ocr: %w", err)
	}
	return Join(fragments), nil
}

// Join builds a Result from raw fragments. Fragments are trimmed and blanks dropped.
func Join(fragments []string) Result {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	text := strings.Join(kept, " ")
	return Result{Text: text, IsEmpty: text == "", Fragments: kept}
}

// ErrUnavailable is returned by Unavailable.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Unavailable is the engine used when OCR is disabled or failed to load.
type Unavailable struct{}

// Fragments always fails with ErrUnavailable.
func (Unavailable) Fragments(ctx context.Context, img decode.Image) ([]string, error) {
	return nil, ErrUnavailable
}
