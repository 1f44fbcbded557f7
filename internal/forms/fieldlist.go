package forms

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrFieldNotFound is returned when a name-based operation targets a missing field.
var ErrFieldNotFound = errors.New("form field not found")

// FieldList is an ordered, name-addressed list of form fields.
// Top-level names are unique; operations look fields up by name, so
// re-applying the same replace/insert/remove sequence never duplicates entries.
type FieldList struct {
	fields []Field
}

// NewFieldList creates a list from fields in order
func NewFieldList(fields ...Field) *FieldList {
	l := &FieldList{}
	for _, f := range fields {
		l.Push(f)
	}
	return l
}

// Push appends f, replacing an existing top-level field of the same name in place.
func (l *FieldList) Push(f Field) {
	if i := l.indexOf(f.Name()); i >= 0 {
		l.fields[i] = f
		return
	}
	l.fields = append(l.fields, f)
}

// Len number of top-level fields
func (l *FieldList) Len() int { return len(l.fields) }

// Fields returns the top-level fields in order
func (l *FieldList) Fields() []Field {
	return append([]Field(nil), l.fields...)
}

// Names returns top-level field names in order
func (l *FieldList) Names() []string {
	names := make([]string, len(l.fields))
	for i, f := range l.fields {
		names[i] = f.Name()
	}
	return names
}

// DataFieldNames returns every data field name with composites flattened
func (l *FieldList) DataFieldNames() []string {
	var names []string
	for _, f := range l.fields {
		if c, ok := f.(Composite); ok {
			for _, child := range c.Children() {
				names = append(names, child.Name())
			}
			continue
		}
		names = append(names, f.Name())
	}
	return names
}

// Has reports whether a top-level field is named name
func (l *FieldList) Has(name string) bool {
	return l.indexOf(name) >= 0
}

func (l *FieldList) indexOf(name string) int {
	for i, f := range l.fields {
		if f.Name() == name {
			return i
		}
	}
	return -1
}

// indexOfContainer finds the top-level entry holding the data field name,
// either the field itself or the composite that groups it.
func (l *FieldList) indexOfContainer(name string) int {
	if i := l.indexOf(name); i >= 0 {
		return i
	}
	for i, f := range l.fields {
		if c, ok := f.(Composite); ok {
			for _, child := range c.Children() {
				if child.Name() == name {
					return i
				}
			}
		}
	}
	return -1
}

// DataFieldByName finds a data field at top level or inside a composite. Nil if absent.
func (l *FieldList) DataFieldByName(name string) Field {
	for _, f := range l.fields {
		if c, ok := f.(Composite); ok {
			for _, child := range c.Children() {
				if child.Name() == name {
					return child
				}
			}
			continue
		}
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// ReplaceField swaps the entry holding name for f, keeping its position.
// Any other top-level entry already named f.Name() is dropped.
func (l *FieldList) ReplaceField(name string, f Field) error {
	i := l.indexOfContainer(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	l.fields[i] = f
	for j := len(l.fields) - 1; j >= 0; j-- {
		if j != i && l.fields[j].Name() == f.Name() {
			l.fields = append(l.fields[:j], l.fields[j+1:]...)
		}
	}
	return nil
}

// RemoveByName drops top-level fields by name. Missing names are ignored.
func (l *FieldList) RemoveByName(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := l.fields[:0]
	for _, f := range l.fields {
		if !drop[f.Name()] {
			kept = append(kept, f)
		}
	}
	l.fields = kept
}

// InsertBefore places f immediately before the top-level field named before,
// moving it if a field of the same name is already in the list.
func (l *FieldList) InsertBefore(f Field, before string) error {
	if f == nil {
		return fmt.Errorf("%w: nil field", ErrFieldNotFound)
	}
	if f.Name() == before {
		return nil
	}
	if l.indexOf(before) < 0 {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, before)
	}
	l.RemoveByName(f.Name())
	i := l.indexOf(before)
	l.fields = append(l.fields, nil)
	copy(l.fields[i+1:], l.fields[i:])
	l.fields[i] = f
	return nil
}

// Clone deep-copies the list and every field in it
func (l *FieldList) Clone() *FieldList {
	c := &FieldList{fields: make([]Field, len(l.fields))}
	for i, f := range l.fields {
		c.fields[i] = f.Clone()
	}
	return c
}

// MarshalJSON encodes the fields as an ordered array
func (l *FieldList) MarshalJSON() ([]byte, error) {
	if l.fields == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.fields)
}

// DataField looks up a data field and asserts its concrete control type.
func DataField[T Field](l *FieldList, name string) (T, error) {
	var zero T
	f := l.DataFieldByName(name)
	if f == nil {
		return zero, fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	t, ok := f.(T)
	if !ok {
		return zero, fmt.Errorf("form field %s is %s, not the expected control", name, f.Type())
	}
	return t, nil
}
