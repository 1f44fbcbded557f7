package repository

import (
	"context"
	"errors"

	"github.com/damoang/angple-elements/internal/common"
	"github.com/damoang/angple-elements/internal/domain"
	"gorm.io/gorm"
)

// LinkRepository call-to-action link data access
type LinkRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.ElementLink, error)
	Create(ctx context.Context, link *domain.ElementLink) error
	Update(ctx context.Context, link *domain.ElementLink) error
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new LinkRepository
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) FindByID(ctx context.Context, id uint64) (*domain.ElementLink, error) {
	var link domain.ElementLink
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	return &link, err
}

func (r *linkRepository) Create(ctx context.Context, link *domain.ElementLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *linkRepository) Update(ctx context.Context, link *domain.ElementLink) error {
	return r.db.WithContext(ctx).Save(link).Error
}
