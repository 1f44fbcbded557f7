// Package versioned keeps draft and live copies of records plus a version
// history, over any gorm model that embeds Base.
package versioned

import "time"

// Stage names the copy of a record being read or written.
type Stage string

const (
	Draft Stage = "Stage"
	Live  Stage = "Live"
)

// ParseStage maps a query value to a stage; anything but "live" is draft.
func ParseStage(s string) Stage {
	if s == "live" || s == string(Live) {
		return Live
	}
	return Draft
}

// Record is the capability a model needs to be stored by Store.
type Record interface {
	GetID() uint64
	SetID(id uint64)
	GetVersion() int
	SetVersion(v int)
	Touch(now time.Time)
	RecordClass() string
}

// Base implements the bookkeeping half of Record; embed it in a model.
type Base struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Version    int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	LastEdited time.Time `gorm:"column:last_edited" json:"last_edited"`
}

func (b *Base) GetID() uint64     { return b.ID }
func (b *Base) SetID(id uint64)   { b.ID = id }
func (b *Base) GetVersion() int   { return b.Version }
func (b *Base) SetVersion(v int)  { b.Version = v }
func (b *Base) Touch(t time.Time) { b.LastEdited = t }

// RecordVersion is one history row. Snapshot holds the record as JSON.
type RecordVersion struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RecordClass  string    `gorm:"column:record_class;type:varchar(100);index:idx_record_versions_record" json:"record_class"`
	RecordID     uint64    `gorm:"column:record_id;index:idx_record_versions_record" json:"record_id"`
	Version      int       `gorm:"column:version" json:"version"`
	WasPublished bool      `gorm:"column:was_published" json:"was_published"`
	WasDeleted   bool      `gorm:"column:was_deleted" json:"was_deleted"`
	AuthorID     *uint64   `gorm:"column:author_id" json:"author_id,omitempty"`
	Snapshot     string    `gorm:"column:snapshot;type:mediumtext" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (RecordVersion) TableName() string { return "record_versions" }
