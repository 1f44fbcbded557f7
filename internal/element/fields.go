package element

import (
	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/forms"
)

// StageName is the name the customization is registered under.
const StageName = "element-object-cms-fields"

// Edit form constants
const (
	ImageFolder        = "Uploads/Elements/Objects"
	ContentRows        = 8
	TitleGroupName     = "TitleAndDisplayed"
	linkDescription    = "Optional. Add a call to action link."
	imageDescription   = "Optional. Display an image with this feature."
	contentDescription = "Optional. Set a description for this feature."
)

// RegisterFields adds the customization stage to the form builder.
func RegisterFields(b *forms.Builder, imageFolder string) {
	if imageFolder == "" {
		imageFolder = ImageFolder
	}
	b.RegisterStage(domain.ElementObjectClass, StageName, func(sc forms.StageContext, fields *forms.FieldList) (*forms.FieldList, error) {
		return CustomizeCMSFields(sc, fields, imageFolder)
	})
}

// CustomizeCMSFields layers the element's adjustments over the scaffolded form.
// Expected fields that are missing fail the whole form with forms.ErrFieldNotFound;
// only ElementFeaturesID, Sort and the standalone ShowTitle may be absent.
func CustomizeCMSFields(sc forms.StageContext, fields *forms.FieldList, imageFolder string) (*forms.FieldList, error) {
	link := forms.NewLinkField("ElementLinkID")
	link.SetTitle("Link")
	link.SetDescription(linkDescription)
	if err := fields.ReplaceField("ElementLinkID", link); err != nil {
		return nil, err
	}
	if err := fields.InsertBefore(link, "Content"); err != nil {
		return nil, err
	}

	fields.RemoveByName("ElementFeaturesID", "Sort")

	fields.RemoveByName("ShowTitle")
	group := forms.NewTextCheckboxGroupField(TitleGroupName,
		forms.NewTextField("Title", sc.T("BaseElement.TitleLabel", "Title (displayed if checked)")),
		forms.NewCheckboxField("ShowTitle", sc.T("BaseElement.ShowTitleLabel", "Displayed")),
	)
	if err := fields.ReplaceField("Title", group); err != nil {
		return nil, err
	}

	image, err := forms.DataField[*forms.UploadField](fields, "Image")
	if err != nil {
		return nil, err
	}
	image.SetDescription(imageDescription)
	image.SetFolderName(imageFolder)
	if err := fields.InsertBefore(image, "Content"); err != nil {
		return nil, err
	}

	content, err := forms.DataField[*forms.HTMLEditorField](fields, "Content")
	if err != nil {
		return nil, err
	}
	content.SetTitle("Description")
	content.SetDescription(contentDescription)
	content.SetRows(ContentRows)

	return fields, nil
}
