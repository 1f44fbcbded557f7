package forms

import (
	"errors"
	"fmt"
	"sync"

	"github.com/damoang/angple-elements/internal/plugin"
	"github.com/damoang/angple-elements/internal/schema"
	"github.com/damoang/angple-elements/pkg/i18n"
)

// ErrUnknownClass is returned when building a form for an unregistered class.
var ErrUnknownClass = errors.New("unknown record class")

// StageContext is what a stage may read besides the field list.
type StageContext struct {
	Class      string
	Locale     i18n.Locale
	Translator Translator
}

// T translates a label key for the stage's locale
func (sc StageContext) T(key, def string) string {
	if sc.Translator == nil {
		return def
	}
	return sc.Translator.TDefault(sc.Locale, key, def)
}

// Stage transforms a field list. It receives its own copy and returns the result.
type Stage func(sc StageContext, fields *FieldList) (*FieldList, error)

type namedStage struct {
	name  string
	stage Stage
}

// Builder produces edit forms: scaffold, registered stages in order, then
// the forms.update.<class> filter hooks contributed by extensions.
type Builder struct {
	mu         sync.RWMutex
	schemas    *schema.Registry
	stages     map[string][]namedStage
	hooks      *plugin.HookManager
	translator Translator
	logger     plugin.Logger
}

// NewBuilder creates a form builder. hooks may be nil.
func NewBuilder(schemas *schema.Registry, hooks *plugin.HookManager, t Translator, logger plugin.Logger) *Builder {
	if logger == nil {
		logger = plugin.NopLogger{}
	}
	return &Builder{
		schemas:    schemas,
		stages:     make(map[string][]namedStage),
		hooks:      hooks,
		translator: t,
		logger:     logger,
	}
}

// RegisterStage adds a named stage for class. Registering a name again
// replaces the earlier stage and keeps its position.
func (b *Builder) RegisterStage(class, name string, s Stage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, ns := range b.stages[class] {
		if ns.name == name {
			b.stages[class][i].stage = s
			return
		}
	}
	b.stages[class] = append(b.stages[class], namedStage{name: name, stage: s})
}

// StageNames lists the stages registered for class in run order
func (b *Builder) StageNames(class string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.stages[class]))
	for _, ns := range b.stages[class] {
		names = append(names, ns.name)
	}
	return names
}

// Build returns the finished edit form for class.
func (b *Builder) Build(class string, locale i18n.Locale) (*FieldList, error) {
	s, ok := b.schemas.Get(class)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}

	fields, err := b.ApplyStages(class, locale, Scaffold(s, b.translator, locale))
	if err != nil {
		return nil, err
	}

	if b.hooks == nil {
		return fields, nil
	}
	out := b.hooks.Apply(plugin.FormUpdateEvent(class), map[string]interface{}{
		"class":  class,
		"locale": string(locale),
		"fields": fields,
	})
	if updated, ok := out["fields"].(*FieldList); ok && updated != nil {
		return updated, nil
	}
	b.logger.Warn("form update hooks for %s returned no field list, keeping staged form", class)
	return fields, nil
}

// ApplyStages runs the registered stages for class over a copy of fields.
func (b *Builder) ApplyStages(class string, locale i18n.Locale, fields *FieldList) (*FieldList, error) {
	b.mu.RLock()
	stages := append([]namedStage(nil), b.stages[class]...)
	b.mu.RUnlock()

	sc := StageContext{Class: class, Locale: locale, Translator: b.translator}
	current := fields
	for _, ns := range stages {
		next, err := ns.stage(sc, current.Clone())
		if err != nil {
			b.logger.Error("form stage %s/%s failed: %v", class, ns.name, err)
			return nil, fmt.Errorf("form stage %s: %w", ns.name, err)
		}
		current = next
	}
	return current, nil
}
