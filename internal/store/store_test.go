package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPolarityValues(t *testing.T) {
	if !PolarityDirect.Valid() || !PolarityInverse.Valid() {
		t.Error("expected direct and inverse to be valid")
	}
	if Polarity("reversed").Valid() {
		t.Error("expected unknown polarity to be invalid")
	}
	if (Question{Polarity: PolarityDirect}).Inverse() {
		t.Error("direct question reported as inverse")
	}
	if !(Question{Polarity: PolarityInverse}).Inverse() {
		t.Error("inverse question not reported as inverse")
	}
}

func TestMemoryStoreCatalogVisibility(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()

	m.AddCategory(nil, Category{Name: "Global", Order: 2})
	m.AddCategory(&tenantA, Category{Name: "Tenant A only", Order: 1})
	m.AddQuestion(Question{Text: "global", Order: 2})
	m.AddQuestion(Question{TenantID: &tenantA, Text: "tenant a", Order: 1})

	cats, _ := m.ListCategories(ctx, tenantA)
	if len(cats) != 2 || cats[0].Name != "Tenant A only" {
		t.Fatalf("tenant A categories = %+v", cats)
	}
	cats, _ = m.ListCategories(ctx, tenantB)
	if len(cats) != 1 || cats[0].Name != "Global" {
		t.Fatalf("tenant B categories = %+v", cats)
	}

	qs, _ := m.ListQuestions(ctx, tenantB)
	if len(qs) != 1 || qs[0].Polarity != PolarityDirect {
		t.Fatalf("tenant B questions = %+v", qs)
	}
}

func TestMemoryStoreTenantScaleReplacesGlobal(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	tenant := uuid.New()

	m.SetScale(uuid.Nil, []ScaleItem{{Label: "No", Value: 0, Order: 1}, {Label: "Yes", Value: 4, Order: 2}})
	m.SetScale(tenant, []ScaleItem{{Label: "High", Value: 10, Order: 2}, {Label: "Low", Value: 0, Order: 1}})

	items, _ := m.ListScaleItems(ctx, tenant)
	if len(items) != 2 || items[0].Label != "Low" || items[1].Value != 10 {
		t.Errorf("tenant scale = %+v", items)
	}
	items, _ = m.ListScaleItems(ctx, uuid.New())
	if len(items) != 2 || items[1].Value != 4 {
		t.Errorf("fallback scale = %+v", items)
	}
}

func TestMemoryStoreActionPlansOrderedByCreation(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	tenant, other := uuid.New(), uuid.New()
	cat := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m.AddActionPlan(ActionPlan{CategoryID: cat, Title: "second", IsGlobal: true, CreatedAt: base.Add(time.Hour)})
	m.AddActionPlan(ActionPlan{CategoryID: cat, Title: "first", TenantID: &tenant, CreatedAt: base})
	m.AddActionPlan(ActionPlan{CategoryID: cat, Title: "hidden from tenant", TenantID: &other, CreatedAt: base})

	plans, _ := m.ListActionPlans(ctx, tenant)
	if len(plans) != 2 || plans[0].Title != "first" || plans[1].Title != "second" {
		t.Errorf("plans = %+v", plans)
	}
}

func TestMemoryStoreAssessments(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	tenant, company := uuid.New(), uuid.New()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	for i, dept := range []string{"Ops", "Sales", "Ops"} {
		a := &Assessment{
			TenantID:     tenant,
			CompanyID:    company,
			Demographics: Demographics{Department: dept},
			Responses:    []Response{{QuestionID: uuid.New(), AnswerValue: 60, ScaleMax: 100, ScoredValue: 60}},
			OverallScore: 60,
			SubmittedAt:  base.Add(time.Duration(2-i) * 24 * time.Hour),
		}
		if err := m.CreateAssessment(ctx, a); err != nil {
			t.Fatalf("CreateAssessment: %v", err)
		}
		if a.ID == uuid.Nil || a.Responses[0].AssessmentID != a.ID {
			t.Fatalf("ids not assigned: %+v", a)
		}
	}

	all, _ := m.ListAssessments(ctx, AssessmentFilter{TenantID: tenant, CompanyID: &company})
	if len(all) != 3 {
		t.Fatalf("expected 3 assessments, got %d", len(all))
	}
	if !all[0].SubmittedAt.Before(all[1].SubmittedAt) {
		t.Error("expected ascending submission order")
	}

	ops, _ := m.ListAssessments(ctx, AssessmentFilter{TenantID: tenant, Department: "Ops"})
	if len(ops) != 2 {
		t.Errorf("expected 2 Ops assessments, got %d", len(ops))
	}

	from := base.Add(24 * time.Hour)
	recent, _ := m.ListAssessments(ctx, AssessmentFilter{TenantID: tenant, From: &from})
	if len(recent) != 2 {
		t.Errorf("expected 2 assessments from %s, got %d", from, len(recent))
	}

	page, _ := m.ListAssessments(ctx, AssessmentFilter{TenantID: tenant, Offset: 1, Limit: 1})
	if len(page) != 1 || page[0].ID != all[1].ID {
		t.Errorf("unexpected page %+v", page)
	}

	none, _ := m.ListAssessments(ctx, AssessmentFilter{TenantID: uuid.New()})
	if len(none) != 0 {
		t.Error("assessments leaked across tenants")
	}

	// Mutating a returned copy must not change stored state.
	all[0].Responses[0].ScoredValue = 0
	again, _ := m.GetAssessment(ctx, tenant, all[0].ID)
	if again.Responses[0].ScoredValue != 60 {
		t.Error("stored response was mutated through a returned copy")
	}

	if err := m.RelabelAssessment(ctx, tenant, all[0].ID, Demographics{Department: "HR"}); err != nil {
		t.Fatalf("RelabelAssessment: %v", err)
	}
	again, _ = m.GetAssessment(ctx, tenant, all[0].ID)
	if again.Demographics.Department != "HR" || again.OverallScore != 60 {
		t.Errorf("relabel changed the wrong fields: %+v", again)
	}
	if err := m.RelabelAssessment(ctx, uuid.New(), all[0].ID, Demographics{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for another tenant, got %v", err)
	}
}

func TestMemoryStoreSingleDefaultTemplate(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	tenant := uuid.New()

	a := &ReportTemplate{TenantID: tenant, Name: "A", SchemaVersion: 1, IsDefault: true}
	b := &ReportTemplate{TenantID: tenant, Name: "B", SchemaVersion: 1}
	if err := m.CreateTemplate(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := m.CreateTemplate(ctx, b); err != nil {
		t.Fatal(err)
	}
	if a.IsDefault {
		t.Error("CreateTemplate must not create defaults")
	}

	if err := m.SetDefaultTemplate(ctx, tenant, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.SetDefaultTemplate(ctx, tenant, b.ID); err != nil {
		t.Fatal(err)
	}

	list, _ := m.ListTemplates(ctx, tenant)
	defaults := 0
	for _, tpl := range list {
		if tpl.IsDefault {
			defaults++
			if tpl.ID != b.ID {
				t.Errorf("expected %s to be default, got %s", b.ID, tpl.ID)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("expected exactly one default, got %d", defaults)
	}

	if err := m.SetDefaultTemplate(ctx, uuid.New(), a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound across tenants, got %v", err)
	}
}

func TestMemoryStoreTemplateUpdateAndDelete(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	tenant := uuid.New()

	tpl := &ReportTemplate{TenantID: tenant, Name: "A", SchemaVersion: 1}
	if err := m.CreateTemplate(ctx, tpl); err != nil {
		t.Fatal(err)
	}
	if string(tpl.Sections) != "[]" {
		t.Errorf("expected empty section array, got %s", tpl.Sections)
	}

	tpl.Name = "Renamed"
	tpl.Sections = []byte(`[{"id":"x","type":"text","title":"X","content":"","order":1,"visible":true}]`)
	if err := m.UpdateTemplate(ctx, tpl); err != nil {
		t.Fatal(err)
	}
	got, _ := m.GetTemplate(ctx, tenant, tpl.ID)
	if got.Name != "Renamed" || string(got.Sections) != string(tpl.Sections) {
		t.Errorf("update not persisted: %+v", got)
	}

	if got, _ := m.GetTemplate(ctx, uuid.New(), tpl.ID); got != nil {
		t.Error("template visible to another tenant")
	}

	if err := m.DeleteTemplate(ctx, tenant, tpl.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.DeleteTemplate(ctx, tenant, tpl.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := m.UpdateTemplate(ctx, tpl); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating deleted template, got %v", err)
	}
}

func TestMemoryStoreCompanyTenantScoped(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	tenant := uuid.New()
	c := m.AddCompany(Company{TenantID: tenant, Name: "Acme"})

	got, err := m.GetCompany(ctx, tenant, c.ID)
	if err != nil || got == nil || got.Name != "Acme" {
		t.Fatalf("GetCompany = %+v, %v", got, err)
	}
	got, err = m.GetCompany(ctx, uuid.New(), c.ID)
	if err != nil || got != nil {
		t.Errorf("expected nil for another tenant, got %+v, %v", got, err)
	}
}
