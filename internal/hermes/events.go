package hermes

import (
	"time"

	"github.com/MikeSquared-Agency/Psyche/internal/scoring"
	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

// AssessmentSubmitEvent is a raw submission arriving over the bus. The tenant
// travels in the payload since there is no request context.
type AssessmentSubmitEvent struct {
	TenantID     string             `json:"tenant_id"`
	CompanyID    string             `json:"company_id"`
	Demographics store.Demographics `json:"demographics"`
	Answers      []scoring.Answer   `json:"answers"`
	SubmittedAt  *time.Time         `json:"submitted_at,omitempty"`
	Source       string             `json:"source,omitempty"`
}

type AssessmentScoredEvent struct {
	AssessmentID string       `json:"assessment_id"`
	TenantID     string       `json:"tenant_id"`
	CompanyID    string       `json:"company_id"`
	OverallScore float64      `json:"overall_score"`
	Zone         scoring.Zone `json:"zone"`
	Responses    int          `json:"responses"`
}

type AssessmentRejectedEvent struct {
	TenantID  string `json:"tenant_id"`
	CompanyID string `json:"company_id"`
	Error     string `json:"error"`
	Source    string `json:"source,omitempty"`
}

type AssessmentRelabeledEvent struct {
	AssessmentID string `json:"assessment_id"`
	TenantID     string `json:"tenant_id"`
}

type ReportComposedEvent struct {
	TenantID    string       `json:"tenant_id"`
	CompanyID   string       `json:"company_id"`
	TemplateID  string       `json:"template_id"`
	Sections    int          `json:"sections"`
	Omitted     int          `json:"omitted"`
	Assessments int          `json:"assessments"`
	Zone        scoring.Zone `json:"zone,omitempty"`
}

type ReportExportedEvent struct {
	TenantID    string    `json:"tenant_id"`
	CompanyID   string    `json:"company_id"`
	TemplateID  string    `json:"template_id"`
	ArtifactURL string    `json:"artifact_url"`
	ExportedAt  time.Time `json:"exported_at"`
}

type TemplateEvent struct {
	TemplateID string `json:"template_id"`
	TenantID   string `json:"tenant_id"`
	Name       string `json:"name,omitempty"`
	SectionID  string `json:"section_id,omitempty"`
}
