package domain

import "time"

// Page access types
const (
	AccessAnyone         = "Anyone"
	AccessLoggedInUsers  = "LoggedInUsers"
	AccessOnlyTheseUsers = "OnlyTheseUsers"
	AccessInherit        = "Inherit"
)

// Page a site tree page; elements are shown on pages
type Page struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ParentID     *uint64   `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	Title        string    `gorm:"column:title;type:varchar(255)" json:"title"`
	URLSegment   string    `gorm:"column:url_segment;type:varchar(255);index" json:"url_segment"`
	CanViewType  string    `gorm:"column:can_view_type;type:varchar(20);not null;default:'Inherit'" json:"can_view_type"`
	CanEditType  string    `gorm:"column:can_edit_type;type:varchar(20);not null;default:'Inherit'" json:"can_edit_type"`
	ViewerGroups []Group   `gorm:"many2many:page_viewer_groups;" json:"viewer_groups,omitempty"`
	EditorGroups []Group   `gorm:"many2many:page_editor_groups;" json:"editor_groups,omitempty"`
	IsPublished  bool      `gorm:"column:is_published" json:"is_published"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Page) TableName() string { return "pages" }

// ControllerName identifies the page as the current request controller
func (p *Page) ControllerName() string { return "Page" }
