// Package tesseract implements the OCR engine on top of gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/vipulchinmay/projectaushadX/internal/decode"
)

// Engine holds one tesseract client for the process lifetime. The client is not
// safe for concurrent use, so every call is serialized.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New loads the tesseract models for languages (e.g. "eng", "hin").
func New(languages []string, tessdataPrefix string) (*Engine, error) {
	if tessdataPrefix != "" {
		if err := os.Setenv("TESSDATA_PREFIX", tessdataPrefix); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	c := gosseract.NewClient()
	if err := c.SetLanguage(languages...); err != nil {
		c.Close()
		return nil, fmt.Errorf("set languages: %w", err)
	}
	return &Engine{client: c}, nil
}

// Fragments returns the text lines of img in reading order.
func (e *Engine) Fragments(ctx context.Context, img decode.Image) ([]string, error) {
	data, err := pngBytes(img)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := e.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil && len(boxes) > 0 {
		out := make([]string, 0, len(boxes))
		for _, b := range boxes {
			out = append(out, b.Word)
		}
		return out, nil
	}

	text, err := e.client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	return strings.Split(text, "\n"), nil
}

// Close releases the tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}

// pngBytes hands tesseract a format leptonica always reads; WEBP and BMP
// payloads are re-encoded.
func pngBytes(img decode.Image) ([]byte, error) {
	switch img.Format {
	case "png", "jpeg", "gif", "tiff":
		if len(img.Data) > 0 {
			return img.Data, nil
		}
	}
	if img.Img == nil {
		return nil, fmt.Errorf("no image data")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
