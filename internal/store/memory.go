package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. Rows are copied on the way in and out so
// callers can never mutate stored state behind the store's back.
type MemoryStore struct {
	mu          sync.RWMutex
	categories  []Category
	catTenant   map[uuid.UUID]*uuid.UUID
	questions   []Question
	scale       map[uuid.UUID][]ScaleItem // uuid.Nil holds the global scale
	plans       []ActionPlan
	companies   map[uuid.UUID]Company
	assessments []*Assessment
	templates   []*ReportTemplate
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		catTenant: make(map[uuid.UUID]*uuid.UUID),
		scale:     make(map[uuid.UUID][]ScaleItem),
		companies: make(map[uuid.UUID]Company),
		now:       time.Now,
	}
}

// --- Seeding (catalog rows are managed outside this service) ---

func (m *MemoryStore) AddCategory(tenantID *uuid.UUID, c Category) Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.categories = append(m.categories, c)
	m.catTenant[c.ID] = tenantID
	return c
}

func (m *MemoryStore) AddQuestion(q Question) Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.Polarity == "" {
		q.Polarity = PolarityDirect
	}
	m.questions = append(m.questions, q)
	return q
}

// SetScale replaces the scale for a tenant; uuid.Nil sets the global scale.
func (m *MemoryStore) SetScale(tenantID uuid.UUID, items []ScaleItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]ScaleItem, len(items))
	copy(cp, items)
	for i := range cp {
		if cp[i].ID == uuid.Nil {
			cp[i].ID = uuid.New()
		}
	}
	m.scale[tenantID] = cp
}

func (m *MemoryStore) AddActionPlan(p ActionPlan) ActionPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	m.plans = append(m.plans, p)
	return p
}

func (m *MemoryStore) AddCompany(c Company) Company {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.companies[c.ID] = c
	return c
}

// --- Catalog ---

func (m *MemoryStore) ListCategories(_ context.Context, tenantID uuid.UUID) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Category
	for _, c := range m.categories {
		if visibleTo(m.catTenant[c.ID], tenantID) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *MemoryStore) ListQuestions(_ context.Context, tenantID uuid.UUID) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Question
	for _, q := range m.questions {
		if visibleTo(q.TenantID, tenantID) {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *MemoryStore) ListScaleItems(_ context.Context, tenantID uuid.UUID) ([]ScaleItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items, ok := m.scale[tenantID]
	if !ok {
		items = m.scale[uuid.Nil]
	}
	out := make([]ScaleItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *MemoryStore) ListActionPlans(_ context.Context, tenantID uuid.UUID) ([]ActionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ActionPlan
	for _, p := range m.plans {
		if p.IsGlobal || (p.TenantID != nil && *p.TenantID == tenantID) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GetCompany(_ context.Context, tenantID, companyID uuid.UUID) (*Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[companyID]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	return &c, nil
}

// --- Assessments ---

func (m *MemoryStore) CreateAssessment(_ context.Context, a *Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	a.ID = uuid.New()
	a.CreatedAt = now
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = now
	}
	for i := range a.Responses {
		a.Responses[i].ID = uuid.New()
		a.Responses[i].AssessmentID = a.ID
		a.Responses[i].CreatedAt = now
	}
	m.assessments = append(m.assessments, copyAssessment(a))
	return nil
}

func (m *MemoryStore) GetAssessment(_ context.Context, tenantID, id uuid.UUID) (*Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assessments {
		if a.ID == id && a.TenantID == tenantID {
			return copyAssessment(a), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListAssessments(_ context.Context, filter AssessmentFilter) ([]*Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Assessment
	for _, a := range m.assessments {
		if a.TenantID != filter.TenantID {
			continue
		}
		if filter.CompanyID != nil && a.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.From != nil && a.SubmittedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.SubmittedAt.After(*filter.To) {
			continue
		}
		if filter.Department != "" && a.Demographics.Department != filter.Department {
			continue
		}
		out = append(out, copyAssessment(a))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryStore) RelabelAssessment(_ context.Context, tenantID, id uuid.UUID, d Demographics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assessments {
		if a.ID == id && a.TenantID == tenantID {
			a.Demographics = d
			return nil
		}
	}
	return ErrNotFound
}

// --- Templates ---

func (m *MemoryStore) CreateTemplate(_ context.Context, t *ReportTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	t.ID = uuid.New()
	t.IsDefault = false
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Sections == nil {
		t.Sections = []byte("[]")
	}
	m.templates = append(m.templates, copyTemplate(t))
	return nil
}

func (m *MemoryStore) GetTemplate(_ context.Context, tenantID, id uuid.UUID) (*ReportTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t := m.findTemplate(tenantID, id); t != nil {
		return copyTemplate(t), nil
	}
	return nil, nil
}

func (m *MemoryStore) ListTemplates(_ context.Context, tenantID uuid.UUID) ([]*ReportTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ReportTemplate
	for _, t := range m.templates {
		if t.TenantID == tenantID {
			out = append(out, copyTemplate(t))
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateTemplate(_ context.Context, t *ReportTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.findTemplate(t.TenantID, t.ID)
	if existing == nil {
		return ErrNotFound
	}
	existing.Name = t.Name
	existing.SchemaVersion = t.SchemaVersion
	existing.Sections = append([]byte(nil), t.Sections...)
	existing.UpdatedAt = m.now()
	t.UpdatedAt = existing.UpdatedAt
	t.IsDefault = existing.IsDefault
	return nil
}

func (m *MemoryStore) DeleteTemplate(_ context.Context, tenantID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.templates {
		if t.ID == id && t.TenantID == tenantID {
			m.templates = append(m.templates[:i], m.templates[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) SetDefaultTemplate(_ context.Context, tenantID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := m.findTemplate(tenantID, id)
	if target == nil {
		return ErrNotFound
	}
	now := m.now()
	for _, t := range m.templates {
		if t.TenantID == tenantID && t.IsDefault && t.ID != id {
			t.IsDefault = false
			t.UpdatedAt = now
		}
	}
	target.IsDefault = true
	target.UpdatedAt = now
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) findTemplate(tenantID, id uuid.UUID) *ReportTemplate {
	for _, t := range m.templates {
		if t.ID == id && t.TenantID == tenantID {
			return t
		}
	}
	return nil
}

func visibleTo(owner *uuid.UUID, tenantID uuid.UUID) bool {
	return owner == nil || *owner == tenantID
}

func copyAssessment(a *Assessment) *Assessment {
	cp := *a
	cp.Responses = append([]Response(nil), a.Responses...)
	return &cp
}

func copyTemplate(t *ReportTemplate) *ReportTemplate {
	cp := *t
	cp.Sections = append([]byte(nil), t.Sections...)
	return &cp
}
