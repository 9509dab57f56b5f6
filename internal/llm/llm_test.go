package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vipulchinmay/projectaushadX/internal/extract"
)

func TestLanguageName(t *testing.T) {
	tests := map[string]string{
		"hi":      "Hindi",
		"MR":      "Marathi",
		"ta-IN":   "Tamil",
		"Punjabi": "Punjabi",
		"kn":      "Kannada",
		"":        "English",
		"fr":      "English",
		"xx_YY":   "English",
	}
	for in, want := range tests {
		if got := LanguageName(in); got != want {
			t.Fatalf("LanguageName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMedicineLabelPrompt(t *testing.T) {
	p := MedicineLabelPrompt("Crocin 500 MFD 01/2024 EXP 12/2026", "hi")
	if !strings.HasPrefix(p, "Crocin 500 MFD 01/2024 EXP 12/2026") {
		t.Fatalf("prompt must start with extracted text: %q", p)
	}
	for _, want := range []string{"medicine name", "2 line description", "MFD", "EXP", "entire response in Hindi"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if p != MedicineLabelPrompt("Crocin 500 MFD 01/2024 EXP 12/2026", "hi") {
		t.Fatalf("prompt must be deterministic")
	}
}

func TestHealthAnalyticsPrompt(t *testing.T) {
	reports := []extract.MedicalExtraction{
		extract.Medical("blood_test.png", "Glucose: 120 mg/dl on 12/05/2023"),
		extract.Medical("xray.png", ""),
	}
	p := HealthAnalyticsPrompt(Profile{Name: "Asha", Age: "42", BloodGroup: "O+"}, reports)

	for _, want := range []string{
		"Name: Asha",
		"Age: 42",
		"Gender: Not specified",
		"MEDICAL REPORTS (2)",
		"Report 1: blood_test.png",
		"- Glucose: 120 mg/dl",
		"Dates: 12/05/2023",
		"Report 2: xray.png",
		"- none detected",
		`"overall_health_score"`,
		`"follow_up_plan"`,
		"Return ONLY the JSON object",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q\n%s", want, p)
		}
	}
}

func TestHealthAnalyticsPromptWithoutReports(t *testing.T) {
	p := HealthAnalyticsPrompt(Profile{}, nil)
	if !strings.Contains(p, "No report text could be extracted.") {
		t.Fatalf("expected empty report notice")
	}
}

func TestParseJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "plain", raw: `{"overall_health_score": 80}`},
		{name: "fenced", raw: "```json\n{\"overall_health_score\": 80}\n```"},
		{name: "prose around", raw: "Here is the report:\n{\"overall_health_score\": 80}\nHope this helps."},
		{name: "braces after object", raw: "Here is the report: {\"overall_health_score\": 80} Hope this helps {:)}"},
		{name: "nested", raw: `{"overall_health_score": 80, "risk_factors": {"bp": "high"}}`},
		{name: "prose only", raw: "I cannot analyze this.", wantErr: true},
		{name: "broken", raw: `{"overall_health_score": }`, wantErr: true},
		{name: "array", raw: `[1,2]`, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseJSONObject(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got["overall_health_score"] != float64(80) {
			t.Fatalf("%s: unexpected object %v", tt.name, got)
		}
	}
}

func TestPlaceholderClientFails(t *testing.T) {
	_, err := Complete(context.Background(), PlaceholderClient{}, "x", Options{})
	var genErr *GenerationError
	if !errors.As(err, &genErr) || !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected not configured GenerationError, got %v", err)
	}
}

func TestFinish(t *testing.T) {
	if out, err := Finish("x", "  hi \n"); err != nil || out != "hi" {
		t.Fatalf("Finish trimmed = %q, %v", out, err)
	}
	if _, err := Finish("x", " \n "); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}
