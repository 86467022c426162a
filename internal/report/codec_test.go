package report

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionsRoundTrip(t *testing.T) {
	in := []Section{
		&TextSection{Base: Base{ID: "intro", Title: "Intro", Content: "Hello\nworld", Order: 1, Visible: true}},
		&TemplateSection{Base: Base{ID: "company_info", Title: "Company", Content: "custom intro for company block", Order: 2, Visible: false}},
		&ChartSection{Base: Base{ID: "chart", Order: 3, Visible: true}},
		&TableSection{Base: Base{ID: "table", Order: 4, Visible: true}},
	}

	data, err := EncodeSections(in)
	require.NoError(t, err)

	out, err := DecodeSections(SchemaVersion, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeMatchesPersistedShape(t *testing.T) {
	data, err := EncodeSections([]Section{&ChartSection{Base: Base{ID: "c", Title: "Chart", Order: 5, Visible: true}}})
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	for _, key := range []string{"id", "title", "content", "order", "visible", "type"} {
		assert.Contains(t, raw[0], key)
	}
	assert.Equal(t, "chart", raw[0]["type"])
}

func TestDecodeVisibleDefaultsTrue(t *testing.T) {
	out, err := DecodeSections(SchemaVersion, []byte(`[{"id":"x","type":"text","order":1}]`))
	require.NoError(t, err)
	assert.True(t, out[0].Meta().Visible)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name    string
		version int
		data    string
		paths   []string
	}{
		{"unknown type", 1, `[{"id":"a","type":"video"}]`, []string{"sections[0].type"}},
		{"empty id", 1, `[{"id":" ","type":"text"}]`, []string{"sections[0].id"}},
		{"duplicate id", 1, `[{"id":"a","type":"text"},{"id":"a","type":"chart"}]`, []string{"sections[1].id"}},
		{"all problems", 1, `[{"id":"","type":"text"},{"id":"b","type":"pie"}]`, []string{"sections[0].id", "sections[1].type"}},
		{"bad json", 1, `{"id":"a"}`, []string{"sections"}},
		{"future version", 2, `[]`, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSections(tt.version, []byte(tt.data))
			require.Error(t, err)

			var paths []string
			collectPaths(err, &paths)
			assert.Equal(t, tt.paths, paths)
		})
	}
}

func collectPaths(err error, out *[]string) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			collectPaths(e, out)
		}
		return
	}
	var se *SchemaError
	if errors.As(err, &se) {
		*out = append(*out, se.Path)
	}
}

func TestUnknownTemplateKeyDecodes(t *testing.T) {
	out, err := DecodeSections(SchemaVersion, []byte(`[{"id":"signature_block","type":"template"}]`))
	require.NoError(t, err)
	tpl := &Template{Sections: out}
	assert.Len(t, tpl.Warnings(), 1)
}
