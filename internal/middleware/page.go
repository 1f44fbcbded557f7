package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/damoang/angple-elements/internal/common"
	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/sitetree"
	"github.com/gin-gonic/gin"
)

// PageHeader names the page an API request acts on
const PageHeader = "X-Page-ID"

// PageLoader loads site tree pages
type PageLoader interface {
	FindByID(ctx context.Context, id uint64) (*domain.Page, error)
}

// CurrentPage binds the request's controller: the page from X-Page-ID (or
// ?page_id=) when given, otherwise a plain API controller.
func CurrentPage(pages PageLoader, controllerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(PageHeader)
		if raw == "" {
			raw = c.Query("page_id")
		}

		var controller sitetree.Controller = sitetree.GenericController{Name: controllerName}
		if raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				common.ErrorResponse(c, http.StatusBadRequest, "Invalid page id", common.ErrInvalidInput)
				c.Abort()
				return
			}
			page, err := pages.FindByID(c.Request.Context(), id)
			if err != nil {
				if errors.Is(err, common.ErrPageNotFound) {
					common.ErrorResponse(c, http.StatusNotFound, "Page not found", err)
				} else {
					common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load page", err)
				}
				c.Abort()
				return
			}
			controller = page
		}

		c.Request = c.Request.WithContext(sitetree.WithController(c.Request.Context(), controller))
		c.Next()
	}
}
