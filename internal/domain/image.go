package domain

import (
	"path"

	"github.com/damoang/angple-elements/internal/versioned"
)

// ImageClass record class of ElementImage
const ImageClass = "Image"

// ElementImage an uploaded image asset. Versioned so it can follow its owner through publish.
type ElementImage struct {
	versioned.Base
	Title    string `gorm:"column:title;type:varchar(255)" json:"title"`
	Folder   string `gorm:"column:folder;type:varchar(255)" json:"folder"`
	Filename string `gorm:"column:filename;type:varchar(255)" json:"filename"`
	MimeType string `gorm:"column:mime_type;type:varchar(100)" json:"mime_type"`
	Width    int    `gorm:"column:width" json:"width"`
	Height   int    `gorm:"column:height" json:"height"`

	// StorageURL public URL returned by the storage backend
	StorageURL string `gorm:"column:storage_url;type:varchar(1024)" json:"storage_url,omitempty"`
}

func (ElementImage) TableName() string    { return "element_images" }
func (*ElementImage) RecordClass() string { return ImageClass }

// URL public path of the original file
func (i *ElementImage) URL() string {
	if i.StorageURL != "" {
		return i.StorageURL
	}
	return "/" + path.Join("assets", i.Folder, i.Filename)
}

// CMSThumbnail public path of the list-view thumbnail
func (i *ElementImage) CMSThumbnail() string {
	if i.StorageURL != "" {
		return i.StorageURL
	}
	return "/" + path.Join("assets", i.Folder, "_resampled", "thumb-"+i.Filename)
}
