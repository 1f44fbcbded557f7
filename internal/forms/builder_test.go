package forms

import (
	"errors"
	"testing"

	"github.com/damoang/angple-elements/internal/plugin"
	"github.com/damoang/angple-elements/internal/schema"
	"github.com/damoang/angple-elements/pkg/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, r.Register(&schema.Schema{
		Class: "Card",
		Table: "cards",
		Fields: []schema.DBField{
			{Name: "Title", Type: schema.Varchar, MaxLength: 255},
			{Name: "ShowTitle", Type: schema.Boolean},
			{Name: "Content", Type: schema.HTMLText},
			{Name: "Secret", Type: schema.Int},
		},
		HasOne: []schema.HasOne{
			{Name: "Image", Kind: schema.RelationImage},
			{Name: "ElementLink", Kind: schema.RelationLink},
		},
		HiddenFields: []string{"Secret"},
	}))
	return r
}

func testBundle() *i18n.Bundle {
	b := i18n.NewBundle(i18n.LocaleEn)
	b.LoadMessages(i18n.LocaleKo, map[string]string{"Card.db_Content": "내용"})
	return b
}

func TestScaffold(t *testing.T) {
	s, _ := testRegistry(t).Get("Card")
	l := Scaffold(s, testBundle(), i18n.LocaleEn)

	assert.Equal(t, []string{"Title", "ShowTitle", "Content", "Image", "ElementLinkID"}, l.Names())
	assert.Equal(t, "Show title", l.DataFieldByName("ShowTitle").Title())
	assert.Equal(t, "Element link", l.DataFieldByName("ElementLinkID").Title())
	assert.Equal(t, 255, l.DataFieldByName("Title").(*TextField).MaxLength)
	assert.Equal(t, DefaultHTMLEditorRows, l.DataFieldByName("Content").(*HTMLEditorField).Rows)

	ko := Scaffold(s, testBundle(), i18n.LocaleKo)
	assert.Equal(t, "내용", ko.DataFieldByName("Content").Title())
}

func TestBuilderWithoutTranslator(t *testing.T) {
	b := NewBuilder(testRegistry(t), nil, nil, nil)
	b.RegisterStage("Card", "label", func(sc StageContext, f *FieldList) (*FieldList, error) {
		f.DataFieldByName("Title").Base().SetTitle(sc.T("Card.Heading", "Heading"))
		return f, nil
	})

	var l *FieldList
	require.NotPanics(t, func() {
		var err error
		l, err = b.Build("Card", i18n.LocaleKo)
		require.NoError(t, err)
	})
	assert.Equal(t, "Content", l.DataFieldByName("Content").Title())
	assert.Equal(t, "Element link", l.DataFieldByName("ElementLinkID").Title())
	assert.Equal(t, "Heading", l.DataFieldByName("Title").Title())
}

func TestBuilderRunsStagesInOrder(t *testing.T) {
	b := NewBuilder(testRegistry(t), nil, testBundle(), nil)

	b.RegisterStage("Card", "drop-image", func(_ StageContext, f *FieldList) (*FieldList, error) {
		f.RemoveByName("Image")
		return f, nil
	})
	b.RegisterStage("Card", "label", func(sc StageContext, f *FieldList) (*FieldList, error) {
		f.DataFieldByName("Title").Base().SetTitle(sc.T("Card.Heading", "Heading"))
		return f, nil
	})
	// replacing keeps position
	b.RegisterStage("Card", "drop-image", func(_ StageContext, f *FieldList) (*FieldList, error) {
		f.RemoveByName("ElementLinkID")
		return f, nil
	})

	assert.Equal(t, []string{"drop-image", "label"}, b.StageNames("Card"))

	l, err := b.Build("Card", i18n.LocaleEn)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "ShowTitle", "Content", "Image"}, l.Names())
	assert.Equal(t, "Heading", l.DataFieldByName("Title").Title())
}

func TestBuilderStageErrorStopsBuild(t *testing.T) {
	b := NewBuilder(testRegistry(t), nil, testBundle(), nil)
	b.RegisterStage("Card", "broken", func(_ StageContext, f *FieldList) (*FieldList, error) {
		return nil, f.ReplaceField("Gone", NewLinkField("Gone"))
	})

	_, err := b.Build("Card", i18n.LocaleEn)
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestBuilderStagesDoNotMutateInput(t *testing.T) {
	b := NewBuilder(testRegistry(t), nil, testBundle(), nil)
	b.RegisterStage("Card", "drop", func(_ StageContext, f *FieldList) (*FieldList, error) {
		f.RemoveByName("Title")
		return f, nil
	})

	in := NewFieldList(NewTextField("Title", "T"), NewHTMLEditorField("Content", "C"))
	out, err := b.ApplyStages("Card", i18n.LocaleEn, in)
	require.NoError(t, err)

	assert.Equal(t, []string{"Title", "Content"}, in.Names())
	assert.Equal(t, []string{"Content"}, out.Names())
}

func TestBuilderUnknownClass(t *testing.T) {
	b := NewBuilder(testRegistry(t), nil, testBundle(), nil)
	_, err := b.Build("Nope", i18n.LocaleEn)
	assert.True(t, errors.Is(err, ErrUnknownClass))
}

func TestBuilderAppliesUpdateHooks(t *testing.T) {
	hooks := plugin.NewHookManager(plugin.NopLogger{})
	hooks.RegisterFilter(plugin.FormUpdateEvent("Card"), "extra", func(ctx *plugin.HookContext) error {
		fields := ctx.Input["fields"].(*FieldList).Clone()
		fields.Push(NewCheckboxField("Featured", "Featured"))
		ctx.SetOutput(map[string]interface{}{"fields": fields})
		return nil
	}, 10)

	b := NewBuilder(testRegistry(t), hooks, testBundle(), nil)
	l, err := b.Build("Card", i18n.LocaleEn)
	require.NoError(t, err)
	assert.True(t, l.Has("Featured"))
}

func TestBuilderRejectsBadHookOutput(t *testing.T) {
	hooks := plugin.NewHookManager(plugin.NopLogger{})
	hooks.RegisterFilter(plugin.FormUpdateEvent("Card"), "broken", func(ctx *plugin.HookContext) error {
		ctx.SetOutput(map[string]interface{}{"fields": "not a list"})
		return nil
	}, 10)

	b := NewBuilder(testRegistry(t), hooks, testBundle(), nil)
	l, err := b.Build("Card", i18n.LocaleEn)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "ShowTitle", "Content", "Image", "ElementLinkID"}, l.Names())
}
