package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/actionplan"
	"github.com/MikeSquared-Agency/Psyche/internal/exporter"
	"github.com/MikeSquared-Agency/Psyche/internal/hermes"
	"github.com/MikeSquared-Agency/Psyche/internal/metrics"
	"github.com/MikeSquared-Agency/Psyche/internal/report"
	"github.com/MikeSquared-Agency/Psyche/internal/scoring"
	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

// Scope selects the assessments a result is computed over.
type Scope struct {
	TenantID   uuid.UUID
	CompanyID  uuid.UUID
	From       *time.Time
	To         *time.Time
	Department string
}

func (sc Scope) variant() string {
	return fmt.Sprintf("results:%s:%s:%s", stamp(sc.From), stamp(sc.To), sc.Department)
}

func stamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Results is the aggregated view of one company within a scope.
type Results struct {
	CompanyID   uuid.UUID             `json:"company_id"`
	Assessments int                   `json:"assessments"`
	Period      *report.Period        `json:"period,omitempty"`
	Skipped     []scoring.Skipped     `json:"skipped,omitempty"`
	Result      scoring.Result        `json:"result"`
	ActionPlans actionplan.Selections `json:"action_plans"`
}

// Results aggregates every valid assessment in scope and selects action plans
// per category. Computed results are cached until the company's next submission
// or relabel. Catalog and action-plan edits are not tracked and show up once the
// cached entry expires.
func (s *Service) Results(ctx context.Context, sc Scope) (*Results, error) {
	company, err := s.store.GetCompany(ctx, sc.TenantID, sc.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}

	// The generation is pinned before any assessment is read.
	gen, err := s.cache.Generation(ctx, sc.TenantID, sc.CompanyID)
	if err != nil {
		metrics.ResultsCache.WithLabelValues("error").Inc()
		s.logger.Warn("results cache read failed", "company_id", sc.CompanyID, "error", err)
		return s.compute(ctx, sc)
	}

	var cached Results
	hit, err := s.cache.Get(ctx, sc.TenantID, sc.CompanyID, gen, sc.variant(), &cached)
	switch {
	case err != nil:
		metrics.ResultsCache.WithLabelValues("error").Inc()
		s.logger.Warn("results cache read failed", "company_id", sc.CompanyID, "error", err)
	case hit:
		metrics.ResultsCache.WithLabelValues("hit").Inc()
		return &cached, nil
	default:
		metrics.ResultsCache.WithLabelValues("miss").Inc()
	}

	res, err := s.compute(ctx, sc)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, sc.TenantID, sc.CompanyID, gen, sc.variant(), res); err != nil {
		s.logger.Warn("results cache write failed", "company_id", sc.CompanyID, "error", err)
	}
	return res, nil
}

func (s *Service) compute(ctx context.Context, sc Scope) (*Results, error) {
	companyID := sc.CompanyID
	assessments, err := s.store.ListAssessments(ctx, store.AssessmentFilter{
		TenantID:   sc.TenantID,
		CompanyID:  &companyID,
		From:       sc.From,
		To:         sc.To,
		Department: sc.Department,
	})
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	categories, err := s.store.ListCategories(ctx, sc.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	questions, err := s.store.ListQuestions(ctx, sc.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	plans, err := s.store.ListActionPlans(ctx, sc.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list action plans: %w", err)
	}

	batch := scoring.CollectResponses(assessments, s.logger)
	if n := len(batch.Skipped); n > 0 {
		metrics.AssessmentsSkipped.Add(float64(n))
	}
	result := scoring.Aggregate(batch.Responses, questions, categories)

	out := &Results{
		CompanyID:   sc.CompanyID,
		Assessments: batch.Assessments,
		Skipped:     batch.Skipped,
		Result:      result,
		ActionPlans: actionplan.SelectAll(result, sc.TenantID, plans),
	}
	if batch.From != nil && batch.To != nil {
		out.Period = &report.Period{From: *batch.From, To: *batch.To}
	}
	return out, nil
}

// ComposeReport fills a template with the company's results. A nil templateID
// uses the tenant's default template, creating one from the built-in sections
// when the tenant has none.
func (s *Service) ComposeReport(ctx context.Context, sc Scope, templateID *uuid.UUID) (*report.Document, error) {
	res, err := s.Results(ctx, sc)
	if err != nil {
		return nil, err
	}

	var t *report.Template
	if templateID != nil {
		t, err = s.GetTemplate(ctx, sc.TenantID, *templateID)
	} else {
		t, err = s.DefaultTemplate(ctx, sc.TenantID)
	}
	if err != nil {
		return nil, err
	}

	company, err := s.store.GetCompany(ctx, sc.TenantID, sc.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}

	doc := report.Compose(t, report.Context{
		Company:     company,
		Responsible: s.responsible(ctx, sc.TenantID, sc.CompanyID),
		Period:      res.Period,
		Result:      res.Result,
		Plans:       res.ActionPlans,
		ActionLabel: s.cfg.ActionLabel,
	}, s.logger)

	metrics.ReportsComposed.Inc()
	for _, o := range doc.Omitted {
		metrics.SectionsOmitted.WithLabelValues(o.Reason).Inc()
	}
	s.publish(hermes.SubjectReportComposed(sc.CompanyID.String()), hermes.ReportComposedEvent{
		TenantID:    sc.TenantID.String(),
		CompanyID:   sc.CompanyID.String(),
		TemplateID:  t.ID.String(),
		Sections:    len(doc.Sections),
		Omitted:     len(doc.Omitted),
		Assessments: res.Assessments,
		Zone:        doc.Overall.Zone,
	})
	return doc, nil
}

// responsible asks the directory for the company's designated person. Failures
// fall back to the company record.
func (s *Service) responsible(ctx context.Context, tenantID, companyID uuid.UUID) *store.Responsible {
	if s.directory == nil {
		return nil
	}
	r, err := s.directory.GetResponsible(ctx, tenantID, companyID)
	if err != nil {
		s.logger.Warn("directory lookup failed", "company_id", companyID, "error", err)
		return nil
	}
	return r
}

// Export composes the report and hands it to the exporter.
func (s *Service) Export(ctx context.Context, sc Scope, templateID *uuid.UUID, format string) (*exporter.Artifact, error) {
	if s.exporter == nil {
		return nil, ErrExportDisabled
	}
	doc, err := s.ComposeReport(ctx, sc, templateID)
	if err != nil {
		return nil, err
	}

	req := exporter.Request{
		TenantID:  sc.TenantID,
		CompanyID: sc.CompanyID,
		Format:    format,
		Document:  doc,
	}
	if s.directory != nil {
		tenant, err := s.directory.GetTenant(ctx, sc.TenantID)
		if err != nil {
			s.logger.Warn("directory tenant lookup failed", "tenant_id", sc.TenantID, "error", err)
		} else if tenant != nil {
			req.LogoURL = tenant.LogoURL
		}
	}

	art, err := s.exporter.Export(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	s.publish(hermes.SubjectReportExported(sc.CompanyID.String()), hermes.ReportExportedEvent{
		TenantID:    sc.TenantID.String(),
		CompanyID:   sc.CompanyID.String(),
		TemplateID:  doc.TemplateID.String(),
		ArtifactURL: art.URL,
		ExportedAt:  s.now(),
	})
	s.logger.Info("report exported", "company_id", sc.CompanyID, "url", art.URL)
	return art, nil
}
