package forms

// Field types
const (
	TypeText              = "text"
	TypeCheckbox          = "checkbox"
	TypeHTMLEditor        = "html_editor"
	TypeNumeric           = "numeric"
	TypeUpload            = "upload"
	TypeLink              = "link"
	TypeTextCheckboxGroup = "text_checkbox_group"
)

// Field is one control in an edit form.
type Field interface {
	Name() string
	Title() string
	Type() string
	Base() *FormField
	Clone() Field
}

// Composite is a field that groups data fields under one label.
type Composite interface {
	Field
	Children() []Field
}

// FormField carries the attributes every control has.
type FormField struct {
	FieldType   string `json:"type"`
	FieldName   string `json:"name"`
	Label       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (f *FormField) Name() string     { return f.FieldName }
func (f *FormField) Title() string    { return f.Label }
func (f *FormField) Type() string     { return f.FieldType }
func (f *FormField) Base() *FormField { return f }

// SetTitle sets the label
func (f *FormField) SetTitle(title string) { f.Label = title }

// SetDescription sets the help text shown under the control
func (f *FormField) SetDescription(d string) { f.Description = d }

// TextField single-line text input
type TextField struct {
	FormField
	MaxLength int `json:"max_length,omitempty"`
}

func NewTextField(name, title string) *TextField {
	return &TextField{FormField: FormField{FieldType: TypeText, FieldName: name, Label: title}}
}

func (f *TextField) Clone() Field {
	c := *f
	return &c
}

// CheckboxField boolean toggle
type CheckboxField struct {
	FormField
}

func NewCheckboxField(name, title string) *CheckboxField {
	return &CheckboxField{FormField: FormField{FieldType: TypeCheckbox, FieldName: name, Label: title}}
}

func (f *CheckboxField) Clone() Field {
	c := *f
	return &c
}

// HTMLEditorField rich-text editor
type HTMLEditorField struct {
	FormField
	Rows int `json:"rows"`
}

// DefaultHTMLEditorRows is the editor height before any customization.
const DefaultHTMLEditorRows = 30

func NewHTMLEditorField(name, title string) *HTMLEditorField {
	return &HTMLEditorField{
		FormField: FormField{FieldType: TypeHTMLEditor, FieldName: name, Label: title},
		Rows:      DefaultHTMLEditorRows,
	}
}

func (f *HTMLEditorField) SetRows(rows int) { f.Rows = rows }

func (f *HTMLEditorField) Clone() Field {
	c := *f
	return &c
}

// NumericField integer input, also used for raw foreign keys
type NumericField struct {
	FormField
}

func NewNumericField(name, title string) *NumericField {
	return &NumericField{FormField: FormField{FieldType: TypeNumeric, FieldName: name, Label: title}}
}

func (f *NumericField) Clone() Field {
	c := *f
	return &c
}

// UploadField file/image picker bound to an upload folder
type UploadField struct {
	FormField
	FolderName        string   `json:"folder_name,omitempty"`
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
}

func NewUploadField(name, title string) *UploadField {
	return &UploadField{FormField: FormField{FieldType: TypeUpload, FieldName: name, Label: title}}
}

func (f *UploadField) SetFolderName(folder string) { f.FolderName = folder }

func (f *UploadField) Clone() Field {
	c := *f
	c.AllowedExtensions = append([]string(nil), f.AllowedExtensions...)
	return &c
}

// LinkField link picker writing a link record ID
type LinkField struct {
	FormField
}

func NewLinkField(name string) *LinkField {
	return &LinkField{FormField: FormField{FieldType: TypeLink, FieldName: name, Label: name}}
}

func (f *LinkField) Clone() Field {
	c := *f
	return &c
}

// TextCheckboxGroupField text input and checkbox rendered as one input group
type TextCheckboxGroupField struct {
	FormField
	Text     *TextField     `json:"text"`
	Checkbox *CheckboxField `json:"checkbox"`
}

// NewTextCheckboxGroupField groups text and checkbox under the text's label
func NewTextCheckboxGroupField(name string, text *TextField, checkbox *CheckboxField) *TextCheckboxGroupField {
	return &TextCheckboxGroupField{
		FormField: FormField{FieldType: TypeTextCheckboxGroup, FieldName: name, Label: text.Title()},
		Text:      text,
		Checkbox:  checkbox,
	}
}

func (f *TextCheckboxGroupField) Children() []Field {
	return []Field{f.Text, f.Checkbox}
}

func (f *TextCheckboxGroupField) Clone() Field {
	c := *f
	c.Text = f.Text.Clone().(*TextField)
	c.Checkbox = f.Checkbox.Clone().(*CheckboxField)
	return &c
}
