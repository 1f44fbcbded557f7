package repository

import (
	"context"
	"errors"

	"github.com/damoang/angple-elements/internal/common"
	"github.com/damoang/angple-elements/internal/domain"
	"gorm.io/gorm"
)

// PageRepository site tree page data access
type PageRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.Page, error)
	Create(ctx context.Context, page *domain.Page) error
}

type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a new PageRepository
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

// FindByID loads a page with its viewer and editor groups
func (r *pageRepository) FindByID(ctx context.Context, id uint64) (*domain.Page, error) {
	var page domain.Page
	err := r.db.WithContext(ctx).
		Preload("ViewerGroups").
		Preload("EditorGroups").
		Where("id = ?", id).
		First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrPageNotFound
	}
	return &page, err
}

func (r *pageRepository) Create(ctx context.Context, page *domain.Page) error {
	return r.db.WithContext(ctx).Create(page).Error
}
