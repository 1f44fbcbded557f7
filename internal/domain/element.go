package domain

import (
	"github.com/damoang/angple-elements/internal/versioned"
)

// ElementObjectClass record class of ElementObject
const ElementObjectClass = "ElementObject"

// ElementObject a titled rich-text block with an optional image and call-to-action link.
// Rows live in element_objects (draft) and element_objects_live.
type ElementObject struct {
	versioned.Base
	Name          string  `gorm:"column:name;type:varchar(255);index" json:"name"`
	Title         string  `gorm:"column:title;type:varchar(255)" json:"title"`
	ShowTitle     bool    `gorm:"column:show_title;not null;default:false" json:"show_title"`
	Content       string  `gorm:"column:content;type:mediumtext" json:"content"`
	Sort          int     `gorm:"column:sort;not null;default:0" json:"sort"`
	ImageID       *uint64 `gorm:"column:image_id;index" json:"image_id,omitempty"`
	ElementLinkID *uint64 `gorm:"column:element_link_id;index" json:"element_link_id,omitempty"`
	ParentPageID  *uint64 `gorm:"column:parent_page_id;index" json:"parent_page_id,omitempty"`
}

func (ElementObject) TableName() string    { return "element_objects" }
func (*ElementObject) RecordClass() string { return ElementObjectClass }

// DisplayTitle returns the title only when it is flagged for display
func (e *ElementObject) DisplayTitle() string {
	if !e.ShowTitle {
		return ""
	}
	return e.Title
}
