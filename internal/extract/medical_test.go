package extract

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestMedicalVitals(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []TestResult
	}{
		{
			name: "glucose with unit",
			text: "Glucose: 120 mg/dl",
			want: []TestResult{{Parameter: "Glucose", Value: "120", Unit: "mg/dl"}},
		},
		{
			name: "blood pressure pair",
			text: "Blood Pressure - 120/80 mmHg",
			want: []TestResult{{Parameter: "Blood Pressure", Value: "120/80", Unit: "mmHg"}},
		},
		{
			name: "abbreviation and decimal",
			text: "Hb 13.5 g/dL, BMI=22.4",
			want: []TestResult{
				{Parameter: "Hb", Value: "13.5", Unit: "g/dL"},
				{Parameter: "BMI", Value: "22.4", Unit: ""},
			},
		},
		{
			name: "temperature degrees",
			text: "temperature 98.6 °F",
			want: []TestResult{{Parameter: "temperature", Value: "98.6", Unit: "°F"}},
		},
		{
			name: "percent",
			text: "sugar 6.1%",
			want: []TestResult{{Parameter: "sugar", Value: "6.1", Unit: "%"}},
		},
		{
			name: "no vocabulary word",
			text: "Sodium 140 mmol/L",
			want: nil,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var out MedicalExtraction
			VitalRule(tt.text, &out)
			if !reflect.DeepEqual(out.TestResults, tt.want) {
				t.Fatalf("VitalRule(%q) = %+v, want %+v", tt.text, out.TestResults, tt.want)
			}
		})
	}
}

func TestMedicalQualitative(t *testing.T) {
	var out MedicalExtraction
	QualitativeRule("Findings: elevated liver enzymes. Kidney function normal", &out)
	want := []TestResult{{Parameter: "liver enzymes", Value: "elevated", Unit: ""}}
	if !reflect.DeepEqual(out.TestResults, want) {
		t.Fatalf("unexpected qualitative results: %+v", out.TestResults)
	}
}

func TestMedicalDatesInTextOrder(t *testing.T) {
	got := Medical("r", "Patient visited on 12/05/2023 and again on 5 June 2023").Dates
	want := []string{"12/05/2023", "5 June 2023"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dates = %v, want %v", got, want)
	}
}

func TestMedicalDatesKeepDuplicatesAndAbbreviations(t *testing.T) {
	got := Medical("r", "1-2-24 then 03 Sept 2024, 1-2-24 and 7 dec 2021").Dates
	want := []string{"1-2-24", "03 Sept 2024", "1-2-24", "7 dec 2021"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dates = %v, want %v", got, want)
	}
}

func TestMedicalIsTotal(t *testing.T) {
	for _, text := range []string{"", "   ", "no medical content at all", strings.Repeat("x", 10000)} {
		res := Medical("", text)
		if res.TestResults == nil || res.Dates == nil {
			t.Fatalf("expected non-nil slices for %q", text[:min(len(text), 20)])
		}
		if res.RawText != text {
			t.Fatalf("raw text must be preserved")
		}
	}

	data, err := json.Marshal(Medical("blood.png", ""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"test_results":[],"dates":[],"report_name":"blood.png","raw_text":""}`
	if string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}
}

func TestTextFromPDFRejectsGarbage(t *testing.T) {
	if _, err := TextFromPDF([]byte("%PDF-1.4 not really")); err == nil {
		t.Fatalf("expected error for corrupt pdf")
	}
}
