// Package extract pulls structured hints out of recognized report text.
//
// The rules here are a cheap heuristic layer in front of the language model,
// not authoritative medical parsing. False positives are tolerated because the
// model always sees the raw text as well.
package extract

import (
	"regexp"
	"strings"
)

// TestResult is one matched measurement or qualitative finding.
type TestResult struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
	Unit      string `json:"unit"`
}

// MedicalExtraction is the structured view of one report.
type MedicalExtraction struct {
	TestResults []TestResult `json:"test_results"`
	Dates       []string     `json:"dates"`
	ReportName  string       `json:"report_name"`
	RawText     string       `json:"raw_text"`
}

// Rule adds whatever it recognizes in text to out. Rules must be pure and total.
type Rule func(text string, out *MedicalExtraction)

var (
	vitalPattern = regexp.MustCompile(`(?i)\b(blood pressure|heart rate|temperature|cholesterol|hemoglobin|glucose|weight|height|sugar|bmi|hb|bp)\b[:=\-\s]*(\d+(?:\.\d+)?(?:/\d+)?)\s*((?:mg|g|mmol|iu|u|µg|ug)/(?:dl|l|ml)|mmhg|bpm|kg/m2|kg|lbs?|cm|mm|°?[cf]\b|%)?`)

	qualitativePattern = regexp.MustCompile(`(?i)\b(normal|high|low|elevated|decreased)\s+([a-z]+(?:\s+[a-z]+){0,2})`)

	datePattern = regexp.MustCompile(`(?i)\b(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{1,2}\s+(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\s+\d{4})\b`)
)

// Rules is the ordered rule list applied by Medical.
var Rules = []Rule{VitalRule, QualitativeRule, DateRule}

// Medical applies Rules to text. It never fails and never returns nil slices.
func Medical(reportName, text string) MedicalExtraction {
	out := MedicalExtraction{
		TestResults: []TestResult{},
		Dates:       []string{},
		ReportName:  reportName,
		RawText:     text,
	}
	for _, rule := range Rules {
		rule(text, &out)
	}
	return out
}

// VitalRule matches "<vital> <value> [unit]", e.g. "Glucose: 120 mg/dl" or "BP 120/80 mmHg".
func VitalRule(text string, out *MedicalExtraction) {
	for _, m := range vitalPattern.FindAllStringSubmatch(text, -1) {
		out.TestResults = append(out.TestResults, TestResult{
			Parameter: m[1],
			Value:     m[2],
			Unit:      m[3],
		})
	}
}

// QualitativeRule matches "<qualifier> <descriptor>", e.g. "elevated liver enzymes".
// The descriptor becomes the parameter and the qualifier the value.
func QualitativeRule(text string, out *MedicalExtraction) {
	for _, m := range qualitativePattern.FindAllStringSubmatch(text, -1) {
		out.TestResults = append(out.TestResults, TestResult{
			Parameter: strings.Join(strings.Fields(m[2]), " "),
			Value:     m[1],
			Unit:      "",
		})
	}
}

// DateRule collects numeric (12/05/2023) and textual (5 June 2023) dates in text order.
func DateRule(text string, out *MedicalExtraction) {
	out.Dates = append(out.Dates, datePattern.FindAllString(text, -1)...)
}
