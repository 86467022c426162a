// Package pipeline runs the scoring core against stored data: it scores and
// persists submissions, computes company results, and composes report documents.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/cache"
	"github.com/MikeSquared-Agency/Psyche/internal/config"
	"github.com/MikeSquared-Agency/Psyche/internal/directory"
	"github.com/MikeSquared-Agency/Psyche/internal/exporter"
	"github.com/MikeSquared-Agency/Psyche/internal/hermes"
	"github.com/MikeSquared-Agency/Psyche/internal/metrics"
	"github.com/MikeSquared-Agency/Psyche/internal/scoring"
	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

var (
	ErrCompanyNotFound    = errors.New("company not found")
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrTemplateNotFound   = errors.New("template not found")
	ErrExportDisabled     = errors.New("no exporter configured")
)

// Service wires the pure core to storage and collaborators. hermes, directory
// and exporter are optional and may be nil.
type Service struct {
	store     store.Store
	hermes    hermes.Client
	directory directory.Client
	exporter  exporter.Client
	cache     cache.ResultsCache
	cfg       config.ReportConfig
	logger    *slog.Logger
	now       func() time.Time

	// serializes read-modify-write of one template within this process
	templateMu sync.Mutex
	editing    map[uuid.UUID]*sync.Mutex
}

func New(s store.Store, h hermes.Client, d directory.Client, e exporter.Client, c cache.ResultsCache, cfg config.ReportConfig, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		store:     s,
		hermes:    h,
		directory: d,
		exporter:  e,
		cache:     c,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		editing:   make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Service) publish(subject string, data interface{}) {
	if s.hermes == nil {
		return
	}
	if err := s.hermes.Publish(subject, data); err != nil {
		s.logger.Warn("publish failed", "subject", subject, "error", err)
	}
}

// Submission is one respondent's raw answers.
type Submission struct {
	TenantID     uuid.UUID          `json:"-"`
	CompanyID    uuid.UUID          `json:"company_id"`
	Demographics store.Demographics `json:"demographics"`
	Answers      []scoring.Answer   `json:"answers"`
	SubmittedAt  *time.Time         `json:"submitted_at,omitempty"`
}

// Submit scores a submission against the tenant's catalog and persists the
// assessment with all its responses. Nothing is stored when any answer is rejected.
func (s *Service) Submit(ctx context.Context, sub Submission) (*store.Assessment, error) {
	company, err := s.store.GetCompany(ctx, sub.TenantID, sub.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}

	items, err := s.store.ListScaleItems(ctx, sub.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list scale: %w", err)
	}
	questions, err := s.store.ListQuestions(ctx, sub.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	scorer := scoring.NewScorer(scoring.NewScale(items), questions, s.logger)
	scored, err := scorer.Score(sub.Answers)
	if err != nil {
		metrics.AnswersRejected.Add(float64(scoring.CountRejected(err)))
		s.publish(hermes.SubjectAssessmentRejected(), hermes.AssessmentRejectedEvent{
			TenantID:  sub.TenantID.String(),
			CompanyID: sub.CompanyID.String(),
			Error:     err.Error(),
		})
		return nil, err
	}

	a := &store.Assessment{
		TenantID:     sub.TenantID,
		CompanyID:    sub.CompanyID,
		Demographics: sub.Demographics,
		Responses:    scored.Responses,
		OverallScore: scored.OverallScore,
	}
	if sub.SubmittedAt != nil {
		a.SubmittedAt = *sub.SubmittedAt
	}
	if err := s.store.CreateAssessment(ctx, a); err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	metrics.AssessmentsScored.Inc()
	s.invalidate(ctx, a.TenantID, a.CompanyID)

	s.publish(hermes.SubjectAssessmentScored(a.ID.String()), hermes.AssessmentScoredEvent{
		AssessmentID: a.ID.String(),
		TenantID:     a.TenantID.String(),
		CompanyID:    a.CompanyID.String(),
		OverallScore: a.OverallScore,
		Zone:         scored.Zone,
		Responses:    len(a.Responses),
	})
	s.logger.Info("assessment scored", "assessment_id", a.ID, "company_id", a.CompanyID,
		"overall", a.OverallScore, "zone", scored.Zone)
	return a, nil
}

// IsRejection reports whether err is a problem with the submission itself
// rather than with the service.
func IsRejection(err error) bool {
	for _, target := range []error{
		scoring.ErrInvalidAnswerValue,
		scoring.ErrUnknownQuestion,
		scoring.ErrDuplicateAnswer,
		scoring.ErrIncompleteAssessment,
		scoring.ErrEmptyScale,
		ErrCompanyNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Service) GetAssessment(ctx context.Context, tenantID, id uuid.UUID) (*store.Assessment, error) {
	a, err := s.store.GetAssessment(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAssessmentNotFound
	}
	return a, nil
}

func (s *Service) ListAssessments(ctx context.Context, filter store.AssessmentFilter) ([]*store.Assessment, error) {
	return s.store.ListAssessments(ctx, filter)
}

// Relabel replaces an assessment's demographics. Scores are untouched.
func (s *Service) Relabel(ctx context.Context, tenantID, id uuid.UUID, d store.Demographics) (*store.Assessment, error) {
	a, err := s.GetAssessment(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.RelabelAssessment(ctx, tenantID, id, d); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}
	a.Demographics = d
	s.invalidate(ctx, tenantID, a.CompanyID)
	s.publish(hermes.SubjectAssessmentRelabeled(id.String()), hermes.AssessmentRelabeledEvent{
		AssessmentID: id.String(),
		TenantID:     tenantID.String(),
	})
	return a, nil
}

func (s *Service) invalidate(ctx context.Context, tenantID, companyID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, tenantID, companyID); err != nil {
		s.logger.Warn("results cache invalidation failed", "company_id", companyID, "error", err)
	}
}
