package element

import (
	"testing"

	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/forms"
	"github.com/damoang/angple-elements/internal/plugin"
	"github.com/damoang/angple-elements/internal/schema"
	"github.com/damoang/angple-elements/pkg/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder(t *testing.T, hooks *plugin.HookManager) *forms.Builder {
	t.Helper()
	registry := schema.NewRegistry()
	require.NoError(t, registry.Register(Schema()))

	bundle := i18n.NewBundle(i18n.LocaleEn)
	for locale, messages := range i18n.DefaultMessages() {
		bundle.LoadMessages(locale, messages)
	}
	b := forms.NewBuilder(registry, hooks, bundle, nil)
	RegisterFields(b, "")
	return b
}

// topLevel finds composites too, which DataFieldByName looks through
func topLevel(fields *forms.FieldList, name string) forms.Field {
	for _, f := range fields.Fields() {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func TestSchemaIsValid(t *testing.T) {
	require.NoError(t, Schema().Validate())
	s := Schema()
	assert.Equal(t, "Name ASC", s.DefaultSort.String())
	assert.True(t, s.IsOwned("Image"))
	assert.False(t, s.IsOwned("ElementLink"))
}

func TestEditForm(t *testing.T) {
	fields, err := testBuilder(t, nil).Build(domain.ElementObjectClass, i18n.LocaleEn)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", TitleGroupName, "ElementLinkID", "Image", "Content"}, fields.Names())

	link, err := forms.DataField[*forms.LinkField](fields, "ElementLinkID")
	require.NoError(t, err)
	assert.Equal(t, "Link", link.Title())
	assert.Equal(t, "Optional. Add a call to action link.", link.Description)

	title, err := forms.DataField[*forms.TextField](fields, "Title")
	require.NoError(t, err)
	assert.Equal(t, "Title (displayed if checked)", title.Title())
	show, err := forms.DataField[*forms.CheckboxField](fields, "ShowTitle")
	require.NoError(t, err)
	assert.Equal(t, "Displayed", show.Title())

	image, err := forms.DataField[*forms.UploadField](fields, "Image")
	require.NoError(t, err)
	assert.Equal(t, ImageFolder, image.FolderName)
	assert.Equal(t, "Optional. Display an image with this feature.", image.Description)

	content, err := forms.DataField[*forms.HTMLEditorField](fields, "Content")
	require.NoError(t, err)
	assert.Equal(t, "Description", content.Title())
	assert.Equal(t, "Optional. Set a description for this feature.", content.Description)
	assert.Equal(t, ContentRows, content.Rows)

	assert.False(t, fields.Has("Sort"))
	assert.False(t, fields.Has("ElementFeaturesID"))
}

func TestEditFormLocalizesGroupLabels(t *testing.T) {
	fields, err := testBuilder(t, nil).Build(domain.ElementObjectClass, i18n.LocaleKo)
	require.NoError(t, err)

	assert.Equal(t, "제목 (체크 시 표시)", fields.DataFieldByName("Title").Title())
	assert.Equal(t, "표시", fields.DataFieldByName("ShowTitle").Title())
	// group label follows its text field
	assert.Equal(t, "제목 (체크 시 표시)", topLevel(fields, TitleGroupName).Title())
}

func TestCustomizeIsIdempotent(t *testing.T) {
	b := testBuilder(t, nil)
	once, err := b.Build(domain.ElementObjectClass, i18n.LocaleEn)
	require.NoError(t, err)

	twice, err := b.ApplyStages(domain.ElementObjectClass, i18n.LocaleEn, once)
	require.NoError(t, err)

	assert.Equal(t, once.Names(), twice.Names())
	assert.ElementsMatch(t, once.DataFieldNames(), twice.DataFieldNames())
}

func TestCustomizeGroupsTitleFields(t *testing.T) {
	fields, err := testBuilder(t, nil).Build(domain.ElementObjectClass, i18n.LocaleEn)
	require.NoError(t, err)

	names := fields.Names()
	assert.Contains(t, names, TitleGroupName)
	assert.NotContains(t, names, "Title")
	assert.NotContains(t, names, "ShowTitle")

	group, ok := topLevel(fields, TitleGroupName).(forms.Composite)
	require.True(t, ok)
	var children []string
	for _, c := range group.Children() {
		children = append(children, c.Name())
	}
	assert.Equal(t, []string{"Title", "ShowTitle"}, children)
}

func TestCustomizeToleratesMissingOptionalFields(t *testing.T) {
	fields := forms.NewFieldList(
		forms.NewTextField("Title", "Title"),
		forms.NewHTMLEditorField("Content", "Content"),
		forms.NewUploadField("Image", "Image"),
		forms.NewNumericField("ElementLinkID", "Element link"),
	)
	out, err := CustomizeCMSFields(forms.StageContext{}, fields, "Custom/Folder")
	require.NoError(t, err)
	assert.Equal(t, []string{TitleGroupName, "ElementLinkID", "Image", "Content"}, out.Names())
	assert.Equal(t, "Custom/Folder", out.DataFieldByName("Image").(*forms.UploadField).FolderName)
}

func TestCustomizeMissingExpectedField(t *testing.T) {
	base := func() *forms.FieldList {
		return forms.NewFieldList(
			forms.NewTextField("Title", "Title"),
			forms.NewCheckboxField("ShowTitle", "Show title"),
			forms.NewHTMLEditorField("Content", "Content"),
			forms.NewUploadField("Image", "Image"),
			forms.NewNumericField("ElementLinkID", "Element link"),
		)
	}

	for _, missing := range []string{"Title", "Content", "Image", "ElementLinkID"} {
		t.Run(missing, func(t *testing.T) {
			fields := base()
			fields.RemoveByName(missing)
			_, err := CustomizeCMSFields(forms.StageContext{}, fields, ImageFolder)
			assert.ErrorIs(t, err, forms.ErrFieldNotFound)
		})
	}
}

func TestEditFormExtensionsRunAfterCustomization(t *testing.T) {
	hooks := plugin.NewHookManager(plugin.NopLogger{})
	hooks.RegisterFilter(plugin.FormUpdateEvent(domain.ElementObjectClass), "featured", func(ctx *plugin.HookContext) error {
		fields := ctx.Input["fields"].(*forms.FieldList).Clone()
		if fields.Has(TitleGroupName) {
			fields.Push(forms.NewCheckboxField("Featured", "Featured"))
		}
		out := map[string]interface{}{}
		for k, v := range ctx.Input {
			out[k] = v
		}
		out["fields"] = fields
		ctx.SetOutput(out)
		return nil
	}, 10)

	fields, err := testBuilder(t, hooks).Build(domain.ElementObjectClass, i18n.LocaleEn)
	require.NoError(t, err)
	assert.Equal(t, "Featured", fields.Names()[len(fields.Names())-1])
}
