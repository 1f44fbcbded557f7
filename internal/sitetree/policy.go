package sitetree

import (
	"context"

	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/permission"
)

// PermissionChecker the role checks page policies need
type PermissionChecker interface {
	Check(ctx context.Context, member *domain.Member, mode permission.Mode, codes ...string) bool
	InGroups(ctx context.Context, member *domain.Member, groupIDs []uint64) bool
}

// ParentLoader loads a page's parent for Inherit resolution
type ParentLoader interface {
	FindByID(ctx context.Context, id uint64) (*domain.Page, error)
}

// maxInheritDepth bounds Inherit resolution on malformed (cyclic) trees
const maxInheritDepth = 32

// Policy decides page-level access
type Policy struct {
	checker PermissionChecker
	parents ParentLoader
}

// NewPolicy creates a page policy
func NewPolicy(checker PermissionChecker, parents ParentLoader) *Policy {
	return &Policy{checker: checker, parents: parents}
}

// For binds the policy to one page
func (p *Policy) For(page *domain.Page) *PageAccess {
	return &PageAccess{policy: p, page: page}
}

// PageAccess answers view/edit/archive for one page
type PageAccess struct {
	policy *Policy
	page   *domain.Page
}

// Page returns the bound page
func (a *PageAccess) Page() *domain.Page { return a.page }

// CanView Anyone → all; LoggedInUsers → any member; OnlyTheseUsers → viewer groups; Inherit → parent
func (a *PageAccess) CanView(ctx context.Context, member *domain.Member) bool {
	if a.policy.checker.Check(ctx, member, permission.ModeAny, permission.CodeAdmin, permission.CodeViewAll) {
		return true
	}
	page := a.page
	for depth := 0; depth < maxInheritDepth; depth++ {
		switch page.CanViewType {
		case domain.AccessAnyone:
			return true
		case domain.AccessLoggedInUsers:
			return member != nil
		case domain.AccessOnlyTheseUsers:
			return a.policy.checker.InGroups(ctx, member, groupIDs(page.ViewerGroups))
		}
		parent := a.policy.parent(ctx, page)
		if parent == nil {
			// root pages inherit from site config, which allows anyone
			return true
		}
		page = parent
	}
	return false
}

// CanEdit requires CMS_ACCESS and the page's edit type
func (a *PageAccess) CanEdit(ctx context.Context, member *domain.Member) bool {
	if a.policy.checker.Check(ctx, member, permission.ModeAny, permission.CodeAdmin, permission.CodeEditAll) {
		return true
	}
	if !a.policy.checker.Check(ctx, member, permission.ModeAny, permission.CodeCMSAccess) {
		return false
	}
	page := a.page
	for depth := 0; depth < maxInheritDepth; depth++ {
		switch page.CanEditType {
		case domain.AccessLoggedInUsers:
			return member != nil
		case domain.AccessOnlyTheseUsers:
			return a.policy.checker.InGroups(ctx, member, groupIDs(page.EditorGroups))
		}
		parent := a.policy.parent(ctx, page)
		if parent == nil {
			// site default: only SITETREE_EDIT_ALL, already checked above
			return false
		}
		page = parent
	}
	return false
}

// CanPublish editors also need SITETREE_PUBLISH
func (a *PageAccess) CanPublish(ctx context.Context, member *domain.Member) bool {
	return a.CanEdit(ctx, member) &&
		a.policy.checker.Check(ctx, member, permission.ModeAny, permission.CodePublishPage)
}

// CanArchive an unpublished page needs edit rights; a published one also needs publish rights
func (a *PageAccess) CanArchive(ctx context.Context, member *domain.Member) bool {
	if !a.page.IsPublished {
		return a.CanEdit(ctx, member)
	}
	return a.CanPublish(ctx, member)
}

func (p *Policy) parent(ctx context.Context, page *domain.Page) *domain.Page {
	if page.ParentID == nil || p.parents == nil {
		return nil
	}
	parent, err := p.parents.FindByID(ctx, *page.ParentID)
	if err != nil {
		return nil
	}
	return parent
}

func groupIDs(groups []domain.Group) []uint64 {
	ids := make([]uint64, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return ids
}
