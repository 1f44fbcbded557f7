package domain

import "time"

// Member a CMS user
type Member struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"column:email;type:varchar(255);uniqueIndex" json:"email"`
	FirstName string    `gorm:"column:first_name;type:varchar(100)" json:"first_name"`
	Surname   string    `gorm:"column:surname;type:varchar(100)" json:"surname"`
	Groups    []Group   `gorm:"many2many:member_groups;" json:"groups,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Member) TableName() string { return "members" }

// Group a security group; permissions are granted to groups, never to members directly
type Group struct {
	ID          uint64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Code        string            `gorm:"column:code;type:varchar(100);uniqueIndex" json:"code"`
	Title       string            `gorm:"column:title;type:varchar(255)" json:"title"`
	ParentID    *uint64           `gorm:"column:parent_id" json:"parent_id,omitempty"`
	Permissions []GroupPermission `gorm:"foreignKey:GroupID" json:"permissions,omitempty"`
}

func (Group) TableName() string { return "security_groups" }

// GroupPermission grants a permission code to a group
type GroupPermission struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	GroupID uint64 `gorm:"column:group_id;index;uniqueIndex:idx_group_permission" json:"group_id"`
	Code    string `gorm:"column:code;type:varchar(100);uniqueIndex:idx_group_permission" json:"code"`
}

func (GroupPermission) TableName() string { return "group_permissions" }
