package sitetree

import (
	"context"

	"github.com/damoang/angple-elements/internal/domain"
)

// Controller is whatever is handling the current request; pages are one kind.
type Controller interface {
	ControllerName() string
}

// GenericController is a non-page controller (admin screens, API endpoints).
type GenericController struct {
	Name string
}

func (g GenericController) ControllerName() string { return g.Name }

type controllerKey struct{}

// WithController binds the current controller to a request context
func WithController(ctx context.Context, c Controller) context.Context {
	return context.WithValue(ctx, controllerKey{}, c)
}

// CurrentController returns the controller bound to ctx, if any
func CurrentController(ctx context.Context) Controller {
	c, _ := ctx.Value(controllerKey{}).(Controller)
	return c
}

// CurrentPage returns the current controller when it is a page, else nil
func CurrentPage(ctx context.Context) *domain.Page {
	if p, ok := CurrentController(ctx).(*domain.Page); ok && p != nil {
		return p
	}
	return nil
}
