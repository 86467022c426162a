// Package report composes report documents from templates and manages the
// templates themselves.
package report

// Kind is the wire tag of a section.
type Kind string

const (
	KindText     Kind = "text"
	KindTemplate Kind = "template"
	KindChart    Kind = "chart"
	KindTable    Kind = "table"
)

// TemplateKey names a built-in section builder. A template section's id is its key.
type TemplateKey string

const (
	KeyCompanyInfo   TemplateKey = "company_info"
	KeyTechnicalInfo TemplateKey = "technical_info"
	KeyActionPlan    TemplateKey = "action_plan"
)

func (k TemplateKey) Known() bool {
	switch k {
	case KeyCompanyInfo, KeyTechnicalInfo, KeyActionPlan:
		return true
	}
	return false
}

// Base holds the fields every section carries. Content is rendered only for
// text sections but is stored for every kind.
type Base struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
	Visible bool   `json:"visible"`
}

// Section is one of *TextSection, *TemplateSection, *ChartSection or *TableSection.
// The set is closed: only this package can add variants.
type Section interface {
	Kind() Kind
	Meta() Base
	base() *Base
	clone() Section
}

// TextSection renders its content verbatim.
type TextSection struct {
	Base
}

// TemplateSection is filled by the builder named by its id.
type TemplateSection struct {
	Base
}

// ChartSection shows one indicator per category.
type ChartSection struct {
	Base
}

// TableSection lists every question's average and distribution per category.
type TableSection struct {
	Base
}

func (s *TextSection) Kind() Kind     { return KindText }
func (s *TemplateSection) Kind() Kind { return KindTemplate }
func (s *ChartSection) Kind() Kind    { return KindChart }
func (s *TableSection) Kind() Kind    { return KindTable }

func (s *TextSection) Meta() Base     { return s.Base }
func (s *TemplateSection) Meta() Base { return s.Base }
func (s *ChartSection) Meta() Base    { return s.Base }
func (s *TableSection) Meta() Base    { return s.Base }

func (s *TextSection) base() *Base     { return &s.Base }
func (s *TemplateSection) base() *Base { return &s.Base }
func (s *ChartSection) base() *Base    { return &s.Base }
func (s *TableSection) base() *Base    { return &s.Base }

func (s *TextSection) clone() Section     { c := *s; return &c }
func (s *TemplateSection) clone() Section { c := *s; return &c }
func (s *ChartSection) clone() Section    { c := *s; return &c }
func (s *TableSection) clone() Section    { c := *s; return &c }

func (s *TemplateSection) Key() TemplateKey { return TemplateKey(s.ID) }

func cloneSections(in []Section) []Section {
	out := make([]Section, len(in))
	for i, s := range in {
		out[i] = s.clone()
	}
	return out
}
