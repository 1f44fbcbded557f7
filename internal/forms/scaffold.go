package forms

import (
	"strings"
	"unicode"

	"github.com/damoang/angple-elements/internal/schema"
	"github.com/damoang/angple-elements/pkg/i18n"
)

// Translator resolves a label key with an inline default
type Translator interface {
	TDefault(locale i18n.Locale, key, def string) string
}

// Scaffold builds the default edit form for a schema: one control per DB
// field, then one per has-one relation, in declaration order. A nil t
// leaves the formatted field names as labels.
func Scaffold(s *schema.Schema, t Translator, locale i18n.Locale) *FieldList {
	label := func(key, name string) string {
		if t == nil {
			return FormatLabel(name)
		}
		return t.TDefault(locale, key, FormatLabel(name))
	}
	hidden := make(map[string]bool, len(s.HiddenFields))
	for _, h := range s.HiddenFields {
		hidden[h] = true
	}

	l := &FieldList{}
	for _, f := range s.Fields {
		if hidden[f.Name] {
			continue
		}
		title := label(s.Class+".db_"+f.Name, f.Name)
		switch f.Type {
		case schema.Varchar:
			tf := NewTextField(f.Name, title)
			tf.MaxLength = f.MaxLength
			l.Push(tf)
		case schema.Boolean:
			l.Push(NewCheckboxField(f.Name, title))
		case schema.HTMLText:
			l.Push(NewHTMLEditorField(f.Name, title))
		case schema.Int:
			l.Push(NewNumericField(f.Name, title))
		}
	}

	for _, h := range s.HasOne {
		if hidden[h.Name] || hidden[h.ForeignKey()] {
			continue
		}
		title := label(s.Class+".has_one_"+h.Name, h.Name)
		if h.Kind == schema.RelationImage {
			uf := NewUploadField(h.Name, title)
			uf.AllowedExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "svg"}
			l.Push(uf)
			continue
		}
		l.Push(NewNumericField(h.ForeignKey(), title))
	}
	return l
}

// FormatLabel turns a field name into a sentence-case label ("ShowTitle" → "Show title").
func FormatLabel(name string) string {
	name = strings.TrimSuffix(name, "ID")
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
