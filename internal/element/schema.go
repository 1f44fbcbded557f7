// Package element implements the ElementObject content block: its schema,
// edit-form customization and page-inherited permissions.
package element

import (
	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/schema"
)

// Schema declares the ElementObject record shape.
func Schema() *schema.Schema {
	return &schema.Schema{
		Class: domain.ElementObjectClass,
		Table: domain.ElementObject{}.TableName(),
		Fields: []schema.DBField{
			{Name: "Name", Type: schema.Varchar, MaxLength: 255},
			{Name: "Title", Type: schema.Varchar, MaxLength: 255},
			{Name: "ShowTitle", Type: schema.Boolean},
			{Name: "Content", Type: schema.HTMLText},
			{Name: "Sort", Type: schema.Int},
		},
		HasOne: []schema.HasOne{
			{Name: "Image", Kind: schema.RelationImage},
			{Name: "ElementLink", Kind: schema.RelationLink},
			{Name: "ParentPage", Kind: schema.RelationPage},
		},
		Owns:        []string{"Image"},
		DefaultSort: schema.Sort{Field: "Name"},
		SummaryFields: []schema.SummaryField{
			{Path: "Image.CMSThumbnail", Label: "Image"},
			{Path: "Name", Label: "Name"},
			{Path: "Title", Label: "Title"},
		},
		SearchableFields: []schema.SearchableField{
			{Field: "Title", Title: "Headline"},
			{Field: "Name", Title: "Name"},
			{Field: "Content", Title: "Description"},
		},
		Versioned:    true,
		HiddenFields: []string{"ParentPage"},
	}
}

// columns maps declared field names to table columns
var columns = map[string]string{
	"Title":     "title",
	"ShowTitle": "show_title",
	"Content":   "content",
	"Name":      "name",
	"Sort":      "sort",
}
