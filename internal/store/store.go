package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by mutations that target a missing row. Reads return (nil, nil).
var ErrNotFound = errors.New("not found")

type Polarity string

const (
	PolarityDirect  Polarity = "direct"
	PolarityInverse Polarity = "inverse"
)

func (p Polarity) Valid() bool {
	switch p {
	case PolarityDirect, PolarityInverse:
		return true
	}
	return false
}

// Question is a catalog entry. A nil TenantID marks a global question.
type Question struct {
	ID         uuid.UUID  `json:"id" yaml:"id"`
	TenantID   *uuid.UUID `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
	CategoryID *uuid.UUID `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	Text       string     `json:"text" yaml:"text"`
	Polarity   Polarity   `json:"polarity" yaml:"polarity"`
	Order      int        `json:"order" yaml:"order"`
}

func (q Question) Inverse() bool { return q.Polarity == PolarityInverse }

type ScaleItem struct {
	ID    uuid.UUID `json:"id" yaml:"id"`
	Label string    `json:"label" yaml:"label"`
	Value float64   `json:"value" yaml:"value"`
	Order int       `json:"order" yaml:"order"`
}

type Category struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Order       int       `json:"order" yaml:"order"`
}

// Response is one answered question. ScaleMax is the scale maximum in effect when
// the answer was scored, so the scored value can be re-derived later.
type Response struct {
	ID           uuid.UUID `json:"id"`
	AssessmentID uuid.UUID `json:"assessment_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	AnswerValue  float64   `json:"answer_value"`
	IsInverse    bool      `json:"is_inverse"`
	ScaleMax     float64   `json:"scale_max"`
	ScoredValue  float64   `json:"scored_value"`
	CreatedAt    time.Time `json:"created_at"`
}

// Demographics are the only assessment fields that may change after creation.
type Demographics struct {
	Department string `json:"department,omitempty" yaml:"department,omitempty"`
	Role       string `json:"role,omitempty" yaml:"role,omitempty"`
	AgeRange   string `json:"age_range,omitempty" yaml:"age_range,omitempty"`
	Gender     string `json:"gender,omitempty" yaml:"gender,omitempty"`
	Tenure     string `json:"tenure,omitempty" yaml:"tenure,omitempty"`
}

type Assessment struct {
	ID           uuid.UUID    `json:"id"`
	TenantID     uuid.UUID    `json:"tenant_id"`
	CompanyID    uuid.UUID    `json:"company_id"`
	Demographics Demographics `json:"demographics"`
	Responses    []Response   `json:"responses"`
	OverallScore float64      `json:"overall_score"`
	SubmittedAt  time.Time    `json:"submitted_at"`
	CreatedAt    time.Time    `json:"created_at"`
}

type AssessmentFilter struct {
	TenantID   uuid.UUID
	CompanyID  *uuid.UUID
	From       *time.Time
	To         *time.Time
	Department string
	Limit      int
	Offset     int
}

// ActionPlan is remediation text for a category. Global plans match by score
// range; tenant-scoped plans (TenantID set, IsGlobal false) override them.
type ActionPlan struct {
	ID           uuid.UUID  `json:"id" yaml:"id"`
	TenantID     *uuid.UUID `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
	CategoryID   uuid.UUID  `json:"category_id" yaml:"category_id"`
	Title        string     `json:"title" yaml:"title"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty"`
	IsGlobal     bool       `json:"is_global" yaml:"is_global"`
	ScoreMin     *float64   `json:"score_min,omitempty" yaml:"score_min,omitempty"`
	ScoreMax     *float64   `json:"score_max,omitempty" yaml:"score_max,omitempty"`
	ShowInReport bool       `json:"show_in_report" yaml:"show_in_report"`
	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
}

type Responsible struct {
	Name     string `json:"name" yaml:"name"`
	Role     string `json:"role,omitempty" yaml:"role,omitempty"`
	Registry string `json:"registry,omitempty" yaml:"registry,omitempty"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
}

type Company struct {
	ID             uuid.UUID    `json:"id" yaml:"id"`
	TenantID       uuid.UUID    `json:"tenant_id" yaml:"tenant_id"`
	Name           string       `json:"name" yaml:"name"`
	RegistrationID string       `json:"registration_id,omitempty" yaml:"registration_id,omitempty"`
	Address        string       `json:"address,omitempty" yaml:"address,omitempty"`
	Departments    []string     `json:"departments,omitempty" yaml:"departments,omitempty"`
	Responsible    *Responsible `json:"responsible,omitempty" yaml:"responsible,omitempty"`
}

// ReportTemplate is the persisted template row. Sections holds the JSON array
// produced by report.EncodeSections for SchemaVersion.
type ReportTemplate struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	Name          string    `json:"name"`
	SchemaVersion int       `json:"schema_version"`
	Sections      []byte    `json:"sections"`
	IsDefault     bool      `json:"default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Store interface {
	// Catalog (read-only configuration; global rows plus the tenant's own)
	ListCategories(ctx context.Context, tenantID uuid.UUID) ([]Category, error)
	ListQuestions(ctx context.Context, tenantID uuid.UUID) ([]Question, error)
	ListScaleItems(ctx context.Context, tenantID uuid.UUID) ([]ScaleItem, error)
	ListActionPlans(ctx context.Context, tenantID uuid.UUID) ([]ActionPlan, error)
	GetCompany(ctx context.Context, tenantID, companyID uuid.UUID) (*Company, error)

	// Assessments (write-once)
	CreateAssessment(ctx context.Context, a *Assessment) error
	GetAssessment(ctx context.Context, tenantID, id uuid.UUID) (*Assessment, error)
	ListAssessments(ctx context.Context, filter AssessmentFilter) ([]*Assessment, error)
	RelabelAssessment(ctx context.Context, tenantID, id uuid.UUID, d Demographics) error

	// Report templates
	CreateTemplate(ctx context.Context, t *ReportTemplate) error
	GetTemplate(ctx context.Context, tenantID, id uuid.UUID) (*ReportTemplate, error)
	ListTemplates(ctx context.Context, tenantID uuid.UUID) ([]*ReportTemplate, error)
	UpdateTemplate(ctx context.Context, t *ReportTemplate) error
	DeleteTemplate(ctx context.Context, tenantID, id uuid.UUID) error
	SetDefaultTemplate(ctx context.Context, tenantID, id uuid.UUID) error

	Close() error
}
