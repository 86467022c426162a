package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SchemaVersion is the section layout written by EncodeSections.
const SchemaVersion = 1

// SchemaError pinpoints one problem in a stored section payload.
type SchemaError struct {
	Path string
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return e.Path + ": " + e.Msg
}

// wireSection is the persisted section shape.
type wireSection struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
	Order   int    `json:"order" yaml:"order"`
	Visible *bool  `json:"visible" yaml:"visible"`
	Type    Kind   `json:"type" yaml:"type"`
}

// EncodeSections serializes sections in their current order using SchemaVersion.
func EncodeSections(sections []Section) ([]byte, error) {
	wire := make([]wireSection, 0, len(sections))
	for _, s := range sections {
		b := s.Meta()
		visible := b.Visible
		w := wireSection{ID: b.ID, Title: b.Title, Content: b.Content, Order: b.Order, Visible: &visible, Type: s.Kind()}
		wire = append(wire, w)
	}
	return json.Marshal(wire)
}

// DecodeSections parses a stored payload written under version. Every problem
// found is reported, each as a *SchemaError joined into the returned error.
func DecodeSections(version int, data []byte) ([]Section, error) {
	if version != SchemaVersion {
		return nil, &SchemaError{Msg: fmt.Sprintf("unsupported schema version %d", version)}
	}
	var wire []wireSection
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &SchemaError{Path: "sections", Msg: err.Error()}
	}
	return fromWire(wire)
}

func fromWire(wire []wireSection) ([]Section, error) {
	var errs []error
	seen := make(map[string]bool, len(wire))
	out := make([]Section, 0, len(wire))

	for i, w := range wire {
		path := fmt.Sprintf("sections[%d]", i)
		id := strings.TrimSpace(w.ID)
		if id == "" {
			errs = append(errs, &SchemaError{Path: path + ".id", Msg: "must not be empty"})
			continue
		}
		if seen[id] {
			errs = append(errs, &SchemaError{Path: path + ".id", Msg: fmt.Sprintf("duplicate id %q", id)})
			continue
		}
		seen[id] = true

		b := Base{ID: id, Title: w.Title, Content: w.Content, Order: w.Order, Visible: true}
		if w.Visible != nil {
			b.Visible = *w.Visible
		}

		switch w.Type {
		case KindText:
			out = append(out, &TextSection{Base: b})
		case KindTemplate:
			out = append(out, &TemplateSection{Base: b})
		case KindChart:
			out = append(out, &ChartSection{Base: b})
		case KindTable:
			out = append(out, &TableSection{Base: b})
		default:
			errs = append(errs, &SchemaError{Path: path + ".type", Msg: fmt.Sprintf("unknown section type %q", w.Type)})
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
