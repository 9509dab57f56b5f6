package analytics

import "github.com/vipulchinmay/projectaushadX/internal/llm"

const (
	fallbackScore  = 75
	fallbackStatus = "Good"
)

// Outcome is the interpretation of a model answer: Parsed or Degraded.
type Outcome interface {
	// Record returns a fresh record safe for the caller to annotate.
	Record() map[string]any
	isOutcome()
}

// Parsed holds the model's JSON object.
type Parsed struct {
	Value map[string]any
}

// Degraded holds the fallback record and the unparseable answer.
type Degraded struct {
	RawText string
	Reason  string
}

func (Parsed) isOutcome()   {}
func (Degraded) isOutcome() {}

// Record implements Outcome.
func (p Parsed) Record() map[string]any {
	out := make(map[string]any, len(p.Value)+3)
	for k, v := range p.Value {
		out[k] = v
	}
	return out
}

// Record implements Outcome.
func (d Degraded) Record() map[string]any {
	return map[string]any{
		"overall_health_score": fallbackScore,
		"health_status":        fallbackStatus,
		"key_findings": []string{
			"Your medical reports were processed, but the detailed analysis could not be structured.",
			"Please consult your healthcare provider to review these results.",
		},
		"error":        "Failed to parse AI response",
		"parse_error":  d.Reason,
		"raw_response": d.RawText,
	}
}

// Interpret parses raw into an Outcome. It never fails.
func Interpret(raw string) Outcome {
	obj, err := llm.ParseJSONObject(raw)
	if err != nil {
		return Degraded{RawText: raw, Reason: err.Error()}
	}
	return Parsed{Value: obj}
}
