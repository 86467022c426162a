package report

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

var (
	ErrSectionNotFound  = errors.New("section not found")
	ErrAmbiguousDefault = errors.New("more than one default template")
	ErrInvalidPatch     = errors.New("invalid section patch")
)

//go:embed builtin/default.yaml
var builtinSections []byte

// Template is a tenant's ordered set of report sections.
type Template struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Default   bool      `json:"default"`
	Sections  []Section `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSections returns a fresh copy of the built-in section set.
func DefaultSections() ([]Section, error) {
	var wire []wireSection
	if err := yaml.Unmarshal(builtinSections, &wire); err != nil {
		return nil, fmt.Errorf("parse builtin sections: %w", err)
	}
	return fromWire(wire)
}

// NewTemplate creates an unsaved, non-default template seeded with the built-in sections.
func NewTemplate(tenantID uuid.UUID, name string) (*Template, error) {
	sections, err := DefaultSections()
	if err != nil {
		return nil, err
	}
	return &Template{TenantID: tenantID, Name: name, Sections: sections}, nil
}

// Section finds a section by id.
func (t *Template) Section(id string) (Section, bool) {
	for _, s := range t.Sections {
		if s.Meta().ID == id {
			return s, true
		}
	}
	return nil, false
}

// SectionPatch changes a subset of one section's fields. Nil fields are left alone.
type SectionPatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Order   *int    `json:"order,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
}

// UpdateSection applies p to the section with the given id. Content can only be
// set on text sections; the other kinds are filled at composition time.
func (t *Template) UpdateSection(id string, p SectionPatch) error {
	s, ok := t.Section(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	if p.Content != nil {
		text, ok := s.(*TextSection)
		if !ok {
			return fmt.Errorf("%w: %s section %q does not render content", ErrInvalidPatch, s.Kind(), id)
		}
		text.Content = *p.Content
	}
	b := s.base()
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Order != nil {
		b.Order = *p.Order
	}
	if p.Visible != nil {
		b.Visible = *p.Visible
	}
	return nil
}

// Duplicate copies the sections into a new, unsaved, non-default template.
func (t *Template) Duplicate(name string) *Template {
	if name == "" {
		name = t.Name + " (copy)"
	}
	return &Template{
		TenantID: t.TenantID,
		Name:     name,
		Sections: cloneSections(t.Sections),
	}
}

// Warnings lists template sections whose key no builder recognizes. They decode
// and persist normally but compose to nothing.
func (t *Template) Warnings() []string {
	var out []string
	for _, s := range t.Sections {
		if ts, ok := s.(*TemplateSection); ok && !ts.Key().Known() {
			out = append(out, fmt.Sprintf("section %q: unknown template key", ts.ID))
		}
	}
	return out
}

// PickDefault returns the tenant's default template, or nil when none is flagged.
// If several are flagged the first one is returned together with ErrAmbiguousDefault.
func PickDefault(templates []*Template) (*Template, error) {
	var found *Template
	for _, t := range templates {
		if !t.Default {
			continue
		}
		if found != nil {
			return found, ErrAmbiguousDefault
		}
		found = t
	}
	return found, nil
}

// FromRecord decodes a stored template row.
func FromRecord(rec *store.ReportTemplate) (*Template, error) {
	sections, err := DecodeSections(rec.SchemaVersion, rec.Sections)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", rec.ID, err)
	}
	return &Template{
		ID:        rec.ID,
		TenantID:  rec.TenantID,
		Name:      rec.Name,
		Default:   rec.IsDefault,
		Sections:  sections,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Record encodes the template for storage under the current SchemaVersion.
func (t *Template) Record() (*store.ReportTemplate, error) {
	data, err := EncodeSections(t.Sections)
	if err != nil {
		return nil, fmt.Errorf("encode sections: %w", err)
	}
	return &store.ReportTemplate{
		ID:            t.ID,
		TenantID:      t.TenantID,
		Name:          t.Name,
		SchemaVersion: SchemaVersion,
		Sections:      data,
		IsDefault:     t.Default,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}, nil
}

// MarshalJSON writes the template with its sections in their persisted shape.
func (t *Template) MarshalJSON() ([]byte, error) {
	sections, err := EncodeSections(t.Sections)
	if err != nil {
		return nil, err
	}
	type alias Template
	return json.Marshal(struct {
		*alias
		SchemaVersion int             `json:"schema_version"`
		Sections      json.RawMessage `json:"sections"`
		Warnings      []string        `json:"warnings,omitempty"`
	}{
		alias:         (*alias)(t),
		SchemaVersion: SchemaVersion,
		Sections:      sections,
		Warnings:      t.Warnings(),
	})
}

// SectionList decodes a section array from JSON or YAML with the same
// validation as stored payloads.
type SectionList []Section

func (l *SectionList) UnmarshalJSON(data []byte) error {
	sections, err := DecodeSections(SchemaVersion, data)
	if err != nil {
		return err
	}
	*l = sections
	return nil
}

func (l *SectionList) UnmarshalYAML(node *yaml.Node) error {
	var wire []wireSection
	if err := node.Decode(&wire); err != nil {
		return err
	}
	sections, err := fromWire(wire)
	if err != nil {
		return err
	}
	*l = sections
	return nil
}
