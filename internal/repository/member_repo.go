package repository

import (
	"context"
	"errors"

	"github.com/damoang/angple-elements/internal/common"
	"github.com/damoang/angple-elements/internal/domain"
	"gorm.io/gorm"
)

// MemberRepository member, group and permission-code data access
type MemberRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.Member, error)
	Create(ctx context.Context, member *domain.Member) error
	GroupIDs(ctx context.Context, memberID uint64) ([]uint64, error)
	CodesForGroups(ctx context.Context, groupIDs []uint64) ([]string, error)
	CreateGroup(ctx context.Context, group *domain.Group, codes ...string) error
	AddToGroup(ctx context.Context, memberID, groupID uint64) error
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) FindByID(ctx context.Context, id uint64) (*domain.Member, error) {
	var member domain.Member
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrMemberNotFound
	}
	return &member, err
}

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// GroupIDs returns the member's direct groups plus every ancestor group
func (r *memberRepository) GroupIDs(ctx context.Context, memberID uint64) ([]uint64, error) {
	var direct []uint64
	err := r.db.WithContext(ctx).Table("member_groups").
		Where("member_id = ?", memberID).
		Pluck("group_id", &direct).Error
	if err != nil {
		return nil, err
	}
	return r.withAncestors(ctx, direct)
}

func (r *memberRepository) withAncestors(ctx context.Context, ids []uint64) ([]uint64, error) {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	frontier := ids
	for len(frontier) > 0 {
		var next []uint64
		for _, id := range frontier {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
				next = append(next, id)
			}
		}
		if len(next) == 0 {
			break
		}
		var parents []uint64
		err := r.db.WithContext(ctx).Model(&domain.Group{}).
			Where("id IN ? AND parent_id IS NOT NULL", next).
			Pluck("parent_id", &parents).Error
		if err != nil {
			return nil, err
		}
		frontier = parents
	}
	return out, nil
}

func (r *memberRepository) CodesForGroups(ctx context.Context, groupIDs []uint64) ([]string, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var codes []string
	err := r.db.WithContext(ctx).Model(&domain.GroupPermission{}).
		Where("group_id IN ?", groupIDs).
		Distinct().
		Pluck("code", &codes).Error
	return codes, err
}

func (r *memberRepository) CreateGroup(ctx context.Context, group *domain.Group, codes ...string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		for _, code := range codes {
			if err := tx.Create(&domain.GroupPermission{GroupID: group.ID, Code: code}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *memberRepository) AddToGroup(ctx context.Context, memberID, groupID uint64) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO member_groups (member_id, group_id) VALUES (?, ?)", memberID, groupID,
	).Error
}
