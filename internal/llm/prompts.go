package llm

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/vipulchinmay/projectaushadX/internal/extract"
)

var (
	//go:embed prompts/medicine_label.txt
	medicineLabelText string
	//go:embed prompts/health_analytics.txt
	healthAnalyticsText string
)

var funcs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}

var (
	medicineLabelTmpl   = template.Must(template.New("medicine_label").Parse(medicineLabelText))
	healthAnalyticsTmpl = template.Must(template.New("health_analytics").Funcs(funcs).Parse(healthAnalyticsText))
)

// MedicalChatPersona is the fixed system turn of every voice conversation.
const MedicalChatPersona = "You are a medical assistant bot. Provide brief, concise answers ONLY to medical questions. " +
	"If a user asks a non-medical question, respond with 'Please ask a medical question.' " +
	"Keep responses under 100 words."

// Profile is the patient context rendered into the analytics prompt.
type Profile struct {
	Name              string
	Age               string
	Gender            string
	BloodGroup        string
	MedicalConditions string
	DateOfBirth       string
}

var languages = []struct{ code, name string }{
	{"en", "English"},
	{"hi", "Hindi"},
	{"mr", "Marathi"},
	{"bn", "Bengali"},
	{"ta", "Tamil"},
	{"te", "Telugu"},
	{"kn", "Kannada"},
	{"gu", "Gujarati"},
	{"ml", "Malayalam"},
	{"pa", "Punjabi"},
}

// LanguageName maps a language code or name to one of the supported output
// languages. Anything unrecognized is English.
func LanguageName(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(c, "-_"); i > 0 {
		c = c[:i]
	}
	for _, l := range languages {
		if c == l.code || c == strings.ToLower(l.name) {
			return l.name
		}
	}
	return "English"
}

// MedicineLabelPrompt asks for name, description, MFD and EXP of the labelled medicine.
func MedicineLabelPrompt(extractedText, languageCode string) string {
	return render(medicineLabelTmpl, struct {
		Text     string
		Language string
	}{Text: extractedText, Language: LanguageName(languageCode)})
}

// HealthAnalyticsPrompt asks for the analytics JSON over the profile and every extracted report.
func HealthAnalyticsPrompt(profile Profile, reports []extract.MedicalExtraction) string {
	return render(healthAnalyticsTmpl, struct {
		Profile Profile
		Reports []extract.MedicalExtraction
	}{Profile: orUnknown(profile), Reports: reports})
}

func orUnknown(p Profile) Profile {
	fill := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "Not specified"
		}
		return s
	}
	return Profile{
		Name:              fill(p.Name),
		Age:               fill(p.Age),
		Gender:            fill(p.Gender),
		BloodGroup:        fill(p.BloodGroup),
		MedicalConditions: fill(p.MedicalConditions),
		DateOfBirth:       fill(p.DateOfBirth),
	}
}

func render(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		// Templates are embedded and their data shapes are fixed.
		panic(err)
	}
	return b.String()
}
