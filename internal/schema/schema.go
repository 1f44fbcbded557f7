// Package schema holds the declarative record shapes the CMS scaffolds forms,
// list views and search filters from.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidSchema is returned for malformed declarations.
var ErrInvalidSchema = errors.New("invalid schema")

// FieldType is the storage type of a declared DB field.
type FieldType string

const (
	Varchar  FieldType = "Varchar"
	Boolean  FieldType = "Boolean"
	HTMLText FieldType = "HTMLText"
	Int      FieldType = "Int"
)

// RelationKind tells the scaffolder which control a has-one relation gets.
type RelationKind string

const (
	RelationImage RelationKind = "Image"
	RelationLink  RelationKind = "Link"
	RelationPage  RelationKind = "Page"
)

// DBField is a persisted scalar attribute.
type DBField struct {
	Name      string
	Type      FieldType
	MaxLength int
}

// HasOne is a single-valued relation stored as <Name>ID.
type HasOne struct {
	Name string
	Kind RelationKind
}

// ForeignKey returns the column-level field name ("ImageID").
func (h HasOne) ForeignKey() string { return h.Name + "ID" }

// SummaryField is a list-view column. Path may traverse a relation ("Image.CMSThumbnail").
type SummaryField struct {
	Path  string
	Label string
}

// SearchableField is a search filter on a DB field.
type SearchableField struct {
	Field string
	Title string
}

// Sort is the default list ordering.
type Sort struct {
	Field string
	Desc  bool
}

func (s Sort) String() string {
	if s.Desc {
		return s.Field + " DESC"
	}
	return s.Field + " ASC"
}

// Schema declares one record class.
type Schema struct {
	Class            string
	Table            string
	Fields           []DBField
	HasOne           []HasOne
	Owns             []string
	DefaultSort      Sort
	SummaryFields    []SummaryField
	SearchableFields []SearchableField
	Versioned        bool
	// HiddenFields are columns the scaffolder never turns into form fields.
	HiddenFields []string
}

// Field looks up a declared DB field by name.
func (s *Schema) Field(name string) (DBField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return DBField{}, false
}

// Relation looks up a has-one relation by name.
func (s *Schema) Relation(name string) (HasOne, bool) {
	for _, h := range s.HasOne {
		if h.Name == name {
			return h, true
		}
	}
	return HasOne{}, false
}

// IsOwned reports whether publishing/archiving cascades to the named relation.
func (s *Schema) IsOwned(relation string) bool {
	for _, o := range s.Owns {
		if o == relation {
			return true
		}
	}
	return false
}

// Validate reports every structural problem in the declaration.
func (s *Schema) Validate() error {
	var problems []string
	if s.Class == "" {
		problems = append(problems, "class is required")
	}
	if s.Table == "" {
		problems = append(problems, "table is required")
	}

	seen := map[string]bool{}
	for _, f := range s.Fields {
		switch {
		case f.Name == "":
			problems = append(problems, "field with empty name")
		case seen[f.Name]:
			problems = append(problems, "duplicate field "+f.Name)
		}
		seen[f.Name] = true
		if f.Type == Varchar && f.MaxLength <= 0 {
			problems = append(problems, "varchar field "+f.Name+" needs a max length")
		}
	}
	for _, h := range s.HasOne {
		if h.Name == "" || seen[h.Name] || seen[h.ForeignKey()] {
			problems = append(problems, "invalid or duplicate relation "+h.Name)
		}
		seen[h.Name] = true
	}
	for _, o := range s.Owns {
		if _, ok := s.Relation(o); !ok {
			problems = append(problems, "owns unknown relation "+o)
		}
	}
	if s.DefaultSort.Field != "" && !seen[s.DefaultSort.Field] {
		problems = append(problems, "default sort on unknown field "+s.DefaultSort.Field)
	}
	for _, sf := range s.SummaryFields {
		root := strings.SplitN(sf.Path, ".", 2)[0]
		if !seen[root] {
			problems = append(problems, "summary field on unknown field "+sf.Path)
		}
	}
	for _, sf := range s.SearchableFields {
		if _, ok := s.Field(sf.Field); !ok {
			problems = append(problems, "searchable field on unknown field "+sf.Field)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w %s: %s", ErrInvalidSchema, s.Class, strings.Join(problems, "; "))
	}
	return nil
}

// Registry 클래스 이름 → 스키마 (thread-safe)
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Register validates and stores a schema.
func (r *Registry) Register(s *Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[s.Class]; exists {
		return fmt.Errorf("%w: class %s registered twice", ErrInvalidSchema, s.Class)
	}
	r.schemas[s.Class] = s
	return nil
}

// MustRegister is Register for process start; a bad declaration panics.
func (r *Registry) MustRegister(s *Schema) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Get returns the schema for a class.
func (r *Registry) Get(class string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[class]
	return s, ok
}

// Classes lists registered class names in order.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for c := range r.schemas {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
