package domain

import (
	"fmt"
	"time"
)

// Link types
const (
	LinkTypeURL   = "URL"
	LinkTypeEmail = "Email"
	LinkTypePhone = "Phone"
	LinkTypePage  = "SiteTree"
)

// ElementLink a call-to-action link value. Referenced, not owned, by elements.
type ElementLink struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title        string    `gorm:"column:title;type:varchar(255)" json:"title"`
	Type         string    `gorm:"column:type;type:varchar(20);not null;default:'URL'" json:"type"`
	URL          string    `gorm:"column:url;type:varchar(2048)" json:"url,omitempty"`
	Email        string    `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`
	Phone        string    `gorm:"column:phone;type:varchar(50)" json:"phone,omitempty"`
	PageID       *uint64   `gorm:"column:page_id" json:"page_id,omitempty"`
	OpenInNewTab bool      `gorm:"column:open_in_new_tab" json:"open_in_new_tab"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ElementLink) TableName() string { return "element_links" }

// Href resolves the link target; pageURL resolves SiteTree links
func (l *ElementLink) Href(pageURL func(id uint64) string) string {
	switch l.Type {
	case LinkTypeEmail:
		return "mailto:" + l.Email
	case LinkTypePhone:
		return "tel:" + l.Phone
	case LinkTypePage:
		if l.PageID == nil || pageURL == nil {
			return ""
		}
		return pageURL(*l.PageID)
	default:
		return l.URL
	}
}

// Validate checks the field required by the link type
func (l *ElementLink) Validate() error {
	switch l.Type {
	case LinkTypeURL, "":
		if l.URL == "" {
			return fmt.Errorf("url link needs a url")
		}
	case LinkTypeEmail:
		if l.Email == "" {
			return fmt.Errorf("email link needs an email")
		}
	case LinkTypePhone:
		if l.Phone == "" {
			return fmt.Errorf("phone link needs a phone number")
		}
	case LinkTypePage:
		if l.PageID == nil {
			return fmt.Errorf("page link needs a page")
		}
	default:
		return fmt.Errorf("unknown link type %q", l.Type)
	}
	return nil
}
