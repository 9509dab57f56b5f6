// Package scan identifies a medicine from a photo of its label.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vipulchinmay/projectaushadX/internal/decode"
	"github.com/vipulchinmay/projectaushadX/internal/llm"
	"github.com/vipulchinmay/projectaushadX/internal/ocr"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
)

// ErrNoText means recognition found nothing to read on the label.
var ErrNoText = errors.New("no text found in the image")

// TextRecognizer is the text side of the recognition adapter.
type TextRecognizer interface {
	Recognize(ctx context.Context, img decode.Image) (ocr.Result, error)
}

// Service runs decode, OCR, prompt and generation for one label photo.
type Service struct {
	OCR TextRecognizer
	LLM llm.Client
}

// Result is a successful scan.
type Result struct {
	RawResponse   string `json:"raw_response"`
	ExtractedText string `json:"extracted_text"`
	Language      string `json:"language"`
}

// Scan returns the model's description of the medicine in imageB64.
func (s *Service) Scan(ctx context.Context, imageB64, language string) (Result, error) {
	start := time.Now()
	img, err := decode.DecodeImage(imageB64)
	metrics.ObserveStage("decode", time.Since(start))
	if err != nil {
		return Result{}, err
	}

	text, err := s.OCR.Recognize(ctx, img)
	if err != nil {
		return Result{}, fmt.Errorf("recognize label: %w", err)
	}
	if text.IsEmpty {
		return Result{}, ErrNoText
	}

	prompt := llm.MedicineLabelPrompt(text.Text, language)
	answer, err := llm.Complete(ctx, s.LLM, prompt, llm.Options{})
	if err != nil {
		return Result{}, err
	}
	return Result{
		RawResponse:   answer,
		ExtractedText: text.Text,
		Language:      llm.LanguageName(language),
	}, nil
}
