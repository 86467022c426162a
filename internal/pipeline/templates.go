package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/hermes"
	"github.com/MikeSquared-Agency/Psyche/internal/report"
	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

var ErrTemplateName = errors.New("template name is required")

// ListTemplates returns the tenant's templates. Rows that no longer decode are
// logged and left out.
func (s *Service) ListTemplates(ctx context.Context, tenantID uuid.UUID) ([]*report.Template, error) {
	recs, err := s.store.ListTemplates(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make([]*report.Template, 0, len(recs))
	for _, rec := range recs {
		t, err := report.FromRecord(rec)
		if err != nil {
			s.logger.Error("undecodable template", "template_id", rec.ID, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Service) GetTemplate(ctx context.Context, tenantID, id uuid.UUID) (*report.Template, error) {
	rec, err := s.store.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if rec == nil {
		return nil, ErrTemplateNotFound
	}
	return report.FromRecord(rec)
}

// DefaultTemplate resolves the tenant's default. With no flagged default the
// oldest template is promoted, and a tenant with no templates at all gets one
// built from the built-in sections.
func (s *Service) DefaultTemplate(ctx context.Context, tenantID uuid.UUID) (*report.Template, error) {
	s.templateMu.Lock()
	defer s.templateMu.Unlock()

	templates, err := s.ListTemplates(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	t, err := report.PickDefault(templates)
	if errors.Is(err, report.ErrAmbiguousDefault) {
		s.logger.Warn("tenant has more than one default template", "tenant_id", tenantID, "using", t.ID)
	}
	if t != nil {
		return t, nil
	}

	if len(templates) > 0 {
		t = templates[0]
	} else {
		t, err = report.NewTemplate(tenantID, s.cfg.DefaultTemplateName)
		if err != nil {
			return nil, err
		}
		if err := s.insert(ctx, t); err != nil {
			return nil, err
		}
	}
	if err := s.store.SetDefaultTemplate(ctx, tenantID, t.ID); err != nil {
		return nil, fmt.Errorf("set default template: %w", err)
	}
	t.Default = true
	s.logger.Info("default template assigned", "tenant_id", tenantID, "template_id", t.ID)
	return t, nil
}

// CreateTemplate stores a new template. Nil sections start from the built-in
// set. A tenant's first template becomes its default.
func (s *Service) CreateTemplate(ctx context.Context, tenantID uuid.UUID, name string, sections []report.Section) (*report.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTemplateName
	}
	t, err := report.NewTemplate(tenantID, name)
	if err != nil {
		return nil, err
	}
	if sections != nil {
		t.Sections = sections
	}
	if err := s.insert(ctx, t); err != nil {
		return nil, err
	}
	if err := s.promoteIfFirst(ctx, t); err != nil {
		return nil, err
	}
	s.publishTemplate(hermes.SubjectTemplateCreated(t.ID.String()), t, "")
	return t, nil
}

// DuplicateTemplate copies an existing template's sections under a new name.
func (s *Service) DuplicateTemplate(ctx context.Context, tenantID, id uuid.UUID, name string) (*report.Template, error) {
	src, err := s.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	t := src.Duplicate(strings.TrimSpace(name))
	if err := s.insert(ctx, t); err != nil {
		return nil, err
	}
	s.publishTemplate(hermes.SubjectTemplateCreated(t.ID.String()), t, "")
	return t, nil
}

// UpdateSection patches one section. Edits to the same template are applied one
// at a time so that concurrent edits to different sections all survive.
func (s *Service) UpdateSection(ctx context.Context, tenantID, id uuid.UUID, sectionID string, p report.SectionPatch) (*report.Template, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	t, err := s.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := t.UpdateSection(sectionID, p); err != nil {
		return nil, err
	}
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	s.publishTemplate(hermes.SubjectTemplateUpdated(t.ID.String()), t, sectionID)
	return t, nil
}

// RenameTemplate changes a template's display name.
func (s *Service) RenameTemplate(ctx context.Context, tenantID, id uuid.UUID, name string) (*report.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTemplateName
	}
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	t, err := s.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	t.Name = name
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	s.publishTemplate(hermes.SubjectTemplateUpdated(t.ID.String()), t, "")
	return t, nil
}

func (s *Service) SetDefaultTemplate(ctx context.Context, tenantID, id uuid.UUID) (*report.Template, error) {
	if err := s.store.SetDefaultTemplate(ctx, tenantID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("set default template: %w", err)
	}
	t, err := s.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.publishTemplate(hermes.SubjectTemplateDefaulted(t.ID.String()), t, "")
	return t, nil
}

// DeleteTemplate removes a template. Deleting the default leaves the tenant
// without one until the next composition promotes another.
func (s *Service) DeleteTemplate(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.store.DeleteTemplate(ctx, tenantID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("delete template: %w", err)
	}
	s.dropLock(id)
	s.publish(hermes.SubjectTemplateDeleted(id.String()), hermes.TemplateEvent{
		TemplateID: id.String(),
		TenantID:   tenantID.String(),
	})
	return nil
}

func (s *Service) insert(ctx context.Context, t *report.Template) error {
	rec, err := t.Record()
	if err != nil {
		return err
	}
	if err := s.store.CreateTemplate(ctx, rec); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	t.ID = rec.ID
	t.Default = false
	t.CreatedAt = rec.CreatedAt
	t.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *Service) save(ctx context.Context, t *report.Template) error {
	rec, err := t.Record()
	if err != nil {
		return err
	}
	if err := s.store.UpdateTemplate(ctx, rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("update template: %w", err)
	}
	t.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *Service) promoteIfFirst(ctx context.Context, t *report.Template) error {
	s.templateMu.Lock()
	defer s.templateMu.Unlock()

	recs, err := s.store.ListTemplates(ctx, t.TenantID)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	for _, rec := range recs {
		if rec.IsDefault {
			return nil
		}
	}
	if err := s.store.SetDefaultTemplate(ctx, t.TenantID, t.ID); err != nil {
		return fmt.Errorf("set default template: %w", err)
	}
	t.Default = true
	return nil
}

func (s *Service) lockFor(id uuid.UUID) *sync.Mutex {
	s.templateMu.Lock()
	defer s.templateMu.Unlock()
	mu, ok := s.editing[id]
	if !ok {
		mu = &sync.Mutex{}
		s.editing[id] = mu
	}
	return mu
}

func (s *Service) dropLock(id uuid.UUID) {
	s.templateMu.Lock()
	delete(s.editing, id)
	s.templateMu.Unlock()
}

func (s *Service) publishTemplate(subject string, t *report.Template, sectionID string) {
	s.publish(subject, hermes.TemplateEvent{
		TemplateID: t.ID.String(),
		TenantID:   t.TenantID.String(),
		Name:       t.Name,
		SectionID:  sectionID,
	})
}
