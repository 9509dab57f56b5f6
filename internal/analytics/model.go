package analytics

import (
	"github.com/vipulchinmay/projectaushadX/internal/extract"
	"github.com/vipulchinmay/projectaushadX/internal/llm"
	"github.com/vipulchinmay/projectaushadX/internal/shared/util"
)

// UserProfile is the externally supplied patient profile. It is read-only here.
type UserProfile struct {
	ID                util.LooseString `json:"id"`
	Name              util.LooseString `json:"name"`
	Age               util.LooseString `json:"age"`
	Gender            util.LooseString `json:"gender"`
	BloodGroup        util.LooseString `json:"blood_group"`
	MedicalConditions util.LooseString `json:"medical_conditions"`
	DateOfBirth       util.LooseString `json:"date_of_birth"`
}

func (p UserProfile) prompt() llm.Profile {
	return llm.Profile{
		Name:              p.Name.String(),
		Age:               p.Age.String(),
		Gender:            p.Gender.String(),
		BloodGroup:        p.BloodGroup.String(),
		MedicalConditions: p.MedicalConditions.String(),
		DateOfBirth:       p.DateOfBirth.String(),
	}
}

// ReportInput is one uploaded report image or PDF.
type ReportInput struct {
	Name   string `json:"name"`
	Base64 string `json:"base64"`
}

// AnalyzeRequest is the body of POST /analyze-medical-reports.
type AnalyzeRequest struct {
	UserData       *UserProfile  `json:"userData"`
	MedicalReports []ReportInput `json:"medicalReports"`
	UserID         string        `json:"userId"`
}

// FailedReport describes a report skipped during a batch.
type FailedReport struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// AnalyzeResult is a completed analytics run.
type AnalyzeResult struct {
	Analytics map[string]any              `json:"analytics"`
	Extracted []extract.MedicalExtraction `json:"medical_data_extracted"`
	Failed    []FailedReport              `json:"failed_reports"`
	Degraded  bool                        `json:"-"`
}

// SaveRequest is the body of POST /save-analytics.
type SaveRequest struct {
	UserID    string         `json:"user_id"`
	Analytics map[string]any `json:"analytics"`
}

// HistoryEntry summarizes one saved record.
type HistoryEntry struct {
	Filename     string `json:"filename"`
	Date         string `json:"date"`
	OverallScore any    `json:"overall_score"`
	HealthStatus any    `json:"health_status"`
}
