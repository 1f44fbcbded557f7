package migration

import (
	"fmt"

	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/element"
	"github.com/damoang/angple-elements/internal/permission"
	"gorm.io/gorm"
)

// Models plain (unversioned) tables, in creation order
func Models() []interface{} {
	return []interface{}{
		&domain.Group{},
		&domain.GroupPermission{},
		&domain.Member{},
		&domain.Page{},
		&domain.ElementLink{},
	}
}

// VersionedTables draft/live table pairs created by the element stores
func VersionedTables() []string {
	var tables []string
	for _, t := range []string{domain.ElementObject{}.TableName(), domain.ElementImage{}.TableName()} {
		tables = append(tables, t, t+"_live")
	}
	return append(tables, "record_versions")
}

// Run executes AutoMigrate for every table and seeds default groups if empty.
func Run(db *gorm.DB) error {
	// 1. AutoMigrate - 테이블 없으면 생성, 있으면 컬럼만 추가
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}
	if err := element.NewElementStore(db).Migrate(); err != nil {
		return err
	}
	if err := element.NewImageStore(db).Migrate(); err != nil {
		return err
	}

	// 2. Seed - security_groups 테이블이 비어있을 때만 기본 그룹 삽입
	var count int64
	if err := db.Model(&domain.Group{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return seedGroups(db)
	}
	return nil
}

func seedGroups(db *gorm.DB) error {
	seeds := []struct {
		group domain.Group
		codes []string
	}{
		{domain.Group{Code: "administrators", Title: "Administrators"}, []string{permission.CodeAdmin}},
		{domain.Group{Code: "content-authors", Title: "Content Authors"}, []string{permission.CodeCMSAccess, permission.CodeEditAll}},
		{domain.Group{Code: "publishers", Title: "Publishers"}, []string{permission.CodeCMSAccess, permission.CodePublishPage}},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, s := range seeds {
			group := s.group
			if err := tx.Create(&group).Error; err != nil {
				return fmt.Errorf("seed group %s: %w", group.Code, err)
			}
			for _, code := range s.codes {
				if err := tx.Create(&domain.GroupPermission{GroupID: group.ID, Code: code}).Error; err != nil {
					return fmt.Errorf("seed permission %s/%s: %w", group.Code, code, err)
				}
			}
		}
		return nil
	})
}
