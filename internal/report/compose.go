package report

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/actionplan"
	"github.com/MikeSquared-Agency/Psyche/internal/scoring"
	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

const DefaultActionLabel = "Action"

// Omission reasons.
const (
	OmitUnknownTemplate = "unknown_template"
	OmitNoData          = "no_data"
	OmitNoCompany       = "no_company"
	OmitNoResponsible   = "no_responsible"
	OmitNoActionPlans   = "no_action_plans"
)

// Period is the submission span of the assessments behind a report.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Context is everything a composition reads. It is never modified.
type Context struct {
	Company *store.Company
	// Responsible overrides Company.Responsible when set.
	Responsible *store.Responsible
	Period      *Period
	Result      scoring.Result
	Plans       actionplan.Selections
	ActionLabel string
}

type Document struct {
	TemplateID   uuid.UUID         `json:"template_id"`
	TemplateName string            `json:"template_name"`
	Overall      scoring.Overall   `json:"overall"`
	Sections     []DocumentSection `json:"sections"`
	Omitted      []Omission        `json:"omitted,omitempty"`
}

type Omission struct {
	SectionID string `json:"section_id"`
	Reason    string `json:"reason"`
}

// DocumentSection is one filled section. Exactly one block is set, matching Kind,
// except text sections which carry Text.
type DocumentSection struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Kind       Kind             `json:"kind"`
	Text       string           `json:"text,omitempty"`
	Company    *CompanyBlock    `json:"company,omitempty"`
	Technical  *TechnicalBlock  `json:"technical,omitempty"`
	ActionPlan *ActionPlanBlock `json:"action_plan,omitempty"`
	Chart      *ChartBlock      `json:"chart,omitempty"`
	Table      *TableBlock      `json:"table,omitempty"`
}

type CompanyBlock struct {
	Name           string     `json:"name"`
	RegistrationID string     `json:"registration_id,omitempty"`
	Address        string     `json:"address,omitempty"`
	Departments    []string   `json:"departments,omitempty"`
	From           *time.Time `json:"from,omitempty"`
	To             *time.Time `json:"to,omitempty"`
}

type TechnicalBlock struct {
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	Registry string `json:"registry,omitempty"`
	Email    string `json:"email,omitempty"`
}

type ActionPlanBlock struct {
	Categories []ActionCategory `json:"categories"`
}

type ActionCategory struct {
	CategoryID uuid.UUID    `json:"category_id"`
	Name       string       `json:"name"`
	Average    float64      `json:"average"`
	Zone       scoring.Zone `json:"zone"`
	RiskLabel  string       `json:"risk_label"`
	Items      []ActionItem `json:"items"`
}

type ActionItem struct {
	Label       string `json:"label"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type ChartBlock struct {
	Indicators []Indicator `json:"indicators"`
}

type Indicator struct {
	CategoryID uuid.UUID    `json:"category_id"`
	Name       string       `json:"name"`
	Average    float64      `json:"average"`
	Zone       scoring.Zone `json:"zone"`
	Label      string       `json:"label"`
}

type TableBlock struct {
	Categories []TableCategory `json:"categories"`
}

type TableCategory struct {
	CategoryID uuid.UUID    `json:"category_id"`
	Name       string       `json:"name"`
	Average    float64      `json:"average"`
	Zone       scoring.Zone `json:"zone"`
	Rows       []TableRow   `json:"rows"`
}

type TableRow struct {
	QuestionID   uuid.UUID            `json:"question_id"`
	Text         string               `json:"text"`
	Average      float64              `json:"average"`
	Distribution scoring.Distribution `json:"distribution"`
}

// Compose projects a template onto computed results. Hidden sections are dropped,
// the rest are ordered by Order (ties keep template order) and filled. Sections
// that would render nothing are left out and listed in Document.Omitted; nothing
// here fails the whole document.
func Compose(t *Template, in Context, logger *slog.Logger) *Document {
	doc := &Document{
		TemplateID:   t.ID,
		TemplateName: t.Name,
		Overall:      in.Result.Overall,
	}

	visible := make([]Section, 0, len(t.Sections))
	for _, s := range t.Sections {
		if s.Meta().Visible {
			visible = append(visible, s)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Meta().Order < visible[j].Meta().Order })

	for _, s := range visible {
		b := s.Meta()
		ds := DocumentSection{ID: b.ID, Title: b.Title, Kind: s.Kind()}

		var reason string
		switch sec := s.(type) {
		case *TextSection:
			ds.Text = sec.Content
		case *TemplateSection:
			reason = fillTemplate(&ds, sec.Key(), in)
			if reason == OmitUnknownTemplate {
				logger.Warn("unknown template section", "template_id", t.ID, "section_id", b.ID)
			}
		case *ChartSection:
			ds.Chart, reason = buildChart(in.Result)
		case *TableSection:
			ds.Table, reason = buildTable(in.Result)
		}

		if reason != "" {
			doc.Omitted = append(doc.Omitted, Omission{SectionID: b.ID, Reason: reason})
			continue
		}
		doc.Sections = append(doc.Sections, ds)
	}
	return doc
}

func fillTemplate(ds *DocumentSection, key TemplateKey, in Context) string {
	switch key {
	case KeyCompanyInfo:
		if in.Company == nil {
			return OmitNoCompany
		}
		ds.Company = buildCompany(in.Company, in.Period)
	case KeyTechnicalInfo:
		r := in.Responsible
		if r == nil && in.Company != nil {
			r = in.Company.Responsible
		}
		if r == nil {
			return OmitNoResponsible
		}
		ds.Technical = &TechnicalBlock{Name: r.Name, Role: r.Role, Registry: r.Registry, Email: r.Email}
	case KeyActionPlan:
		block := buildActionPlan(in)
		if block == nil {
			return OmitNoActionPlans
		}
		ds.ActionPlan = block
	default:
		return OmitUnknownTemplate
	}
	return ""
}

func buildCompany(c *store.Company, p *Period) *CompanyBlock {
	block := &CompanyBlock{
		Name:           c.Name,
		RegistrationID: c.RegistrationID,
		Address:        c.Address,
		Departments:    append([]string(nil), c.Departments...),
	}
	if p != nil {
		from, to := p.From, p.To
		block.From = &from
		block.To = &to
	}
	return block
}

func buildActionPlan(in Context) *ActionPlanBlock {
	label := in.ActionLabel
	if label == "" {
		label = DefaultActionLabel
	}
	byCategory := in.Plans.ByCategory()

	var cats []ActionCategory
	for _, c := range in.Result.Categories {
		plans := byCategory[c.CategoryID]
		if len(plans) == 0 {
			continue
		}
		ac := ActionCategory{
			CategoryID: c.CategoryID,
			Name:       c.Name,
			Average:    scoring.Round1(c.Average),
			Zone:       c.Zone,
			RiskLabel:  c.Zone.Label(),
		}
		for i, p := range plans {
			ac.Items = append(ac.Items, ActionItem{
				Label:       fmt.Sprintf("%s %d", label, i+1),
				Title:       p.Title,
				Description: p.Description,
			})
		}
		cats = append(cats, ac)
	}
	if len(cats) == 0 {
		return nil
	}
	return &ActionPlanBlock{Categories: cats}
}

func buildChart(res scoring.Result) (*ChartBlock, string) {
	var out []Indicator
	for _, c := range res.NonEmpty() {
		out = append(out, Indicator{
			CategoryID: c.CategoryID,
			Name:       c.Name,
			Average:    scoring.Round1(c.Average),
			Zone:       c.Zone,
			Label:      c.Zone.Label(),
		})
	}
	if len(out) == 0 {
		return nil, OmitNoData
	}
	return &ChartBlock{Indicators: out}, ""
}

func buildTable(res scoring.Result) (*TableBlock, string) {
	var out []TableCategory
	for _, c := range res.NonEmpty() {
		tc := TableCategory{
			CategoryID: c.CategoryID,
			Name:       c.Name,
			Average:    scoring.Round1(c.Average),
			Zone:       c.Zone,
		}
		for _, q := range c.Questions {
			if q.Count == 0 {
				continue
			}
			tc.Rows = append(tc.Rows, TableRow{
				QuestionID:   q.QuestionID,
				Text:         q.Text,
				Average:      scoring.Round1(q.Average),
				Distribution: q.Distribution,
			})
		}
		out = append(out, tc)
	}
	if len(out) == 0 {
		return nil, OmitNoData
	}
	return &TableBlock{Categories: out}, ""
}
