package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSchema() *Schema {
	return &Schema{
		Class: "Thing",
		Table: "things",
		Fields: []DBField{
			{Name: "Name", Type: Varchar, MaxLength: 255},
			{Name: "Body", Type: HTMLText},
		},
		HasOne:           []HasOne{{Name: "Image", Kind: RelationImage}},
		Owns:             []string{"Image"},
		DefaultSort:      Sort{Field: "Name"},
		SummaryFields:    []SummaryField{{Path: "Image.CMSThumbnail", Label: "Image"}, {Path: "Name", Label: "Name"}},
		SearchableFields: []SearchableField{{Field: "Body", Title: "Body"}},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validSchema().Validate())
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Schema)
	}{
		{"no class", func(s *Schema) { s.Class = "" }},
		{"no table", func(s *Schema) { s.Table = "" }},
		{"duplicate field", func(s *Schema) { s.Fields = append(s.Fields, DBField{Name: "Name", Type: HTMLText}) }},
		{"varchar without length", func(s *Schema) { s.Fields[0].MaxLength = 0 }},
		{"owns unknown", func(s *Schema) { s.Owns = []string{"Link"} }},
		{"sort unknown", func(s *Schema) { s.DefaultSort = Sort{Field: "Missing"} }},
		{"summary unknown", func(s *Schema) { s.SummaryFields = []SummaryField{{Path: "Nope.Thumb"}} }},
		{"searchable relation", func(s *Schema) { s.SearchableFields = []SearchableField{{Field: "Image"}} }},
		{"relation clashes with fk", func(s *Schema) { s.Fields = append(s.Fields, DBField{Name: "ImageID", Type: Int}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchema()
			tt.mutate(s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSchema)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(validSchema()))
	assert.ErrorIs(t, r.Register(validSchema()), ErrInvalidSchema)

	s, ok := r.Get("Thing")
	require.True(t, ok)
	assert.True(t, s.IsOwned("Image"))
	assert.Equal(t, "Name ASC", s.DefaultSort.String())
	assert.Equal(t, []string{"Thing"}, r.Classes())

	bad := validSchema()
	bad.Class = "Bad"
	bad.Table = ""
	assert.Panics(t, func() { r.MustRegister(bad) })
}
