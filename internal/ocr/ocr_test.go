package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/vipulchinmay/projectaushadX/internal/decode"
)

type fakeEngine struct {
	fragments []string
	err       error
}

func (f fakeEngine) Fragments(ctx context.Context, img decode.Image) ([]string, error) {
	return f.fragments, f.err
}

func TestRecognizeJoinsFragmentsWithSingleSpace(t *testing.T) {
	r := NewRecognizer(fakeEngine{fragments: []string{"Paracetamol", " 500mg ", "", "EXP 12/2026"}})
	res, err := r.Recognize(context.Background(), decode.Image{})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Text != "Paracetamol 500mg EXP 12/2026" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.IsEmpty {
		t.Fatalf("expected non-empty result")
	}
	if len(res.Fragments) != 3 {
		t.Fatalf("expected blank fragments dropped, got %v", res.Fragments)
	}
}

func TestRecognizeEmptyIsNotAnError(t *testing.T) {
	for _, fragments := range [][]string{nil, {}, {"  ", "\n"}} {
		res, err := NewRecognizer(fakeEngine{fragments: fragments}).Recognize(context.Background(), decode.Image{})
		if err != nil {
			t.Fatalf("Recognize: %v", err)
		}
		if !res.IsEmpty || res.Text != "" {
			t.Fatalf("expected empty result for %q, got %+v", fragments, res)
		}
	}
}

func TestRecognizeWrapsEngineError(t *testing.T) {
	boom := errors.New("engine crashed")
	_, err := NewRecognizer(fakeEngine{err: boom}).Recognize(context.Background(), decode.Image{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped engine error, got %v", err)
	}
}
