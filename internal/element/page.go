package element

import (
	"context"

	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/sitetree"
)

// PageAccess is the page-level permission surface elements delegate to.
type PageAccess interface {
	CanView(ctx context.Context, member *domain.Member) bool
	CanEdit(ctx context.Context, member *domain.Member) bool
	CanArchive(ctx context.Context, member *domain.Member) bool
}

// PageAccessFunc resolves a page into its permission surface.
type PageAccessFunc func(page *domain.Page) PageAccess

// ResolvePage returns the page the request is rendering, or nil when the
// current controller is not a page or there is no controller at all.
func ResolvePage(ctx context.Context) *domain.Page {
	return sitetree.CurrentPage(ctx)
}
