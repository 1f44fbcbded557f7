package element

import (
	"context"

	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/permission"
	"github.com/damoang/angple-elements/internal/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation is the permission being asked
type Operation string

const (
	OpView   Operation = "view"
	OpEdit   Operation = "edit"
	OpDelete Operation = "delete"
	OpCreate Operation = "create"
)

// Decider names the step that produced a decision
type Decider string

const (
	DecidedByExtension Decider = "extension"
	DecidedByPage      Decider = "page"
	DecidedByFallback  Decider = "fallback"
)

// Decision is the terminal state of one permission resolution.
type Decision struct {
	Operation Operation
	Allowed   bool
	DecidedBy Decider
}

var permissionDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "element_permission_decisions_total",
		Help: "Element permission decisions by operation, deciding step and result",
	},
	[]string{"operation", "decider", "result"},
)

var askEvents = map[Operation]string{
	OpView:   plugin.HookElementCanView,
	OpEdit:   plugin.HookElementCanEdit,
	OpDelete: plugin.HookElementCanDelete,
	OpCreate: plugin.HookElementCanCreate,
}

// CodeChecker is the role check the fallback uses
type CodeChecker interface {
	Check(ctx context.Context, member *domain.Member, mode permission.Mode, codes ...string) bool
}

// strategy answers an operation once the extensions have abstained.
type strategy interface {
	decider() Decider
	decide(ctx context.Context, op Operation, member *domain.Member) bool
}

// noContextStrategy applies when no page is being rendered: CMS access is enough.
type noContextStrategy struct {
	checker CodeChecker
}

func (s noContextStrategy) decider() Decider { return DecidedByFallback }

func (s noContextStrategy) decide(ctx context.Context, _ Operation, member *domain.Member) bool {
	return s.checker.Check(ctx, member, permission.ModeAny, permission.CodeCMSAccess)
}

// pageDelegatingStrategy hands view/edit/delete to the enclosing page.
type pageDelegatingStrategy struct {
	page     PageAccess
	fallback noContextStrategy
}

func (s pageDelegatingStrategy) decider() Decider { return DecidedByPage }

func (s pageDelegatingStrategy) decide(ctx context.Context, op Operation, member *domain.Member) bool {
	switch op {
	case OpView:
		return s.page.CanView(ctx, member)
	case OpEdit:
		return s.page.CanEdit(ctx, member)
	case OpDelete:
		return s.page.CanArchive(ctx, member)
	default:
		return s.fallback.decide(ctx, op, member)
	}
}

// Permissions resolves element permissions: extension deciders first, then
// the enclosing page, then CMS_ACCESS.
type Permissions struct {
	hooks   *plugin.HookManager
	checker CodeChecker
	pages   PageAccessFunc
}

// NewPermissions creates the resolver. hooks may be nil.
func NewPermissions(hooks *plugin.HookManager, checker CodeChecker, pages PageAccessFunc) *Permissions {
	return &Permissions{hooks: hooks, checker: checker, pages: pages}
}

// Decide runs the full chain for op. record may be nil (create); extra is
// passed through to extension deciders as "context".
func (p *Permissions) Decide(ctx context.Context, op Operation, record *domain.ElementObject, member *domain.Member, extra map[string]interface{}) Decision {
	d := p.decide(ctx, op, record, member, extra)
	permissionDecisions.WithLabelValues(string(d.Operation), string(d.DecidedBy), result(d.Allowed)).Inc()
	return d
}

func (p *Permissions) decide(ctx context.Context, op Operation, record *domain.ElementObject, member *domain.Member, extra map[string]interface{}) Decision {
	if p.hooks != nil {
		data := map[string]interface{}{
			"member":  member,
			"element": record,
			"context": extra,
		}
		if answer := p.hooks.Ask(askEvents[op], data); answer != nil {
			return Decision{Operation: op, Allowed: *answer, DecidedBy: DecidedByExtension}
		}
	}

	s := p.strategyFor(ctx, op)
	return Decision{Operation: op, Allowed: s.decide(ctx, op, member), DecidedBy: s.decider()}
}

func (p *Permissions) strategyFor(ctx context.Context, op Operation) strategy {
	fallback := noContextStrategy{checker: p.checker}
	if op == OpCreate || p.pages == nil {
		return fallback
	}
	page := ResolvePage(ctx)
	if page == nil {
		return fallback
	}
	return pageDelegatingStrategy{page: p.pages(page), fallback: fallback}
}

// CanView reports whether member may see record.
func (p *Permissions) CanView(ctx context.Context, record *domain.ElementObject, member *domain.Member) bool {
	return p.Decide(ctx, OpView, record, member, nil).Allowed
}

// CanEdit reports whether member may change record.
func (p *Permissions) CanEdit(ctx context.Context, record *domain.ElementObject, member *domain.Member) bool {
	return p.Decide(ctx, OpEdit, record, member, nil).Allowed
}

// CanDelete reports whether member may archive record.
func (p *Permissions) CanDelete(ctx context.Context, record *domain.ElementObject, member *domain.Member) bool {
	return p.Decide(ctx, OpDelete, record, member, nil).Allowed
}

// CanCreate never consults the page; extra is handed to extensions.
func (p *Permissions) CanCreate(ctx context.Context, member *domain.Member, extra map[string]interface{}) bool {
	return p.Decide(ctx, OpCreate, nil, member, extra).Allowed
}

func result(allowed bool) string {
	if allowed {
		return "allow"
	}
	return "deny"
}
