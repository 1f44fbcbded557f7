// Package permission answers "does this member hold these permission codes".
package permission

import (
	"context"

	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/pkg/cache"
	"github.com/rs/zerolog"
)

// Mode decides how several codes combine
type Mode string

const (
	ModeAny Mode = "any"
	ModeAll Mode = "all"
)

// Permission codes
const (
	CodeAdmin       = "ADMIN"
	CodeCMSAccess   = "CMS_ACCESS"
	CodeEditAll     = "SITETREE_EDIT_ALL"
	CodeViewAll     = "SITETREE_VIEW_ALL"
	CodePublishPage = "SITETREE_PUBLISH"
)

// Repository group and code lookups the checker needs
type Repository interface {
	GroupIDs(ctx context.Context, memberID uint64) ([]uint64, error)
	CodesForGroups(ctx context.Context, groupIDs []uint64) ([]string, error)
}

// Checker resolves permission codes through the member's groups.
type Checker struct {
	repo   Repository
	cache  cache.Service
	logger zerolog.Logger
}

// NewChecker creates a checker; cacheSvc may be nil
func NewChecker(repo Repository, cacheSvc cache.Service, logger zerolog.Logger) *Checker {
	return &Checker{repo: repo, cache: cacheSvc, logger: logger}
}

// Check reports whether member holds codes under mode. ADMIN holds every code.
// Anonymous members and lookup failures are denied.
func (c *Checker) Check(ctx context.Context, member *domain.Member, mode Mode, codes ...string) bool {
	if member == nil || len(codes) == 0 {
		return false
	}

	groupIDs, err := c.GroupIDs(ctx, member)
	if err != nil {
		c.logger.Error().Err(err).Uint64("member_id", member.ID).Msg("permission: group lookup failed")
		return false
	}
	held, err := c.repo.CodesForGroups(ctx, groupIDs)
	if err != nil {
		c.logger.Error().Err(err).Uint64("member_id", member.ID).Msg("permission: code lookup failed")
		return false
	}

	set := make(map[string]bool, len(held))
	for _, h := range held {
		set[h] = true
	}
	if set[CodeAdmin] {
		return true
	}

	for _, code := range codes {
		if set[code] && mode != ModeAll {
			return true
		}
		if !set[code] && mode == ModeAll {
			return false
		}
	}
	return mode == ModeAll
}

// InGroups reports whether member belongs (directly or through a parent) to any of groupIDs
func (c *Checker) InGroups(ctx context.Context, member *domain.Member, groupIDs []uint64) bool {
	if member == nil || len(groupIDs) == 0 {
		return false
	}
	mine, err := c.GroupIDs(ctx, member)
	if err != nil {
		c.logger.Error().Err(err).Uint64("member_id", member.ID).Msg("permission: group lookup failed")
		return false
	}
	want := make(map[uint64]bool, len(groupIDs))
	for _, id := range groupIDs {
		want[id] = true
	}
	for _, id := range mine {
		if want[id] {
			return true
		}
	}
	return false
}

// GroupIDs returns the member's effective groups, read through the cache
func (c *Checker) GroupIDs(ctx context.Context, member *domain.Member) ([]uint64, error) {
	if c.cache != nil && c.cache.IsAvailable() {
		if ids, err := c.cache.GetMemberGroups(ctx, member.ID); err == nil {
			return ids, nil
		}
	}

	ids, err := c.repo.GroupIDs(ctx, member.ID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && c.cache.IsAvailable() {
		if err := c.cache.SetMemberGroups(ctx, member.ID, ids); err != nil {
			c.logger.Warn().Err(err).Uint64("member_id", member.ID).Msg("permission: cache write failed")
		}
	}
	return ids, nil
}
