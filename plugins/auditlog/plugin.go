// 요소 변경 감사 로그 플러그인 진입점
package auditlog

import (
	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/plugin"
)

const Name = "auditlog"

func init() {
	plugin.RegisterFactory(Name, func() plugin.Plugin {
		return New()
	})
}

// AuditLogPlugin 저장/발행/보관 이벤트를 로거에 기록
type AuditLogPlugin struct {
	logger plugin.Logger
	events []string
}

func New() *AuditLogPlugin             { return &AuditLogPlugin{} }
func (p *AuditLogPlugin) Name() string { return Name }

func (p *AuditLogPlugin) Initialize(ctx *plugin.PluginContext) error {
	p.logger = ctx.Logger
	if p.logger == nil {
		p.logger = plugin.NopLogger{}
	}

	p.events = []string{
		plugin.HookElementAfterWrite,
		plugin.HookElementAfterPublish,
		plugin.HookElementAfterArchive,
	}
	if skip, _ := ctx.Config["skip_writes"].(bool); skip {
		p.events = p.events[1:]
	}
	return nil
}

func (p *AuditLogPlugin) RegisterHooks(hm *plugin.HookManager) {
	for _, event := range p.events {
		hm.Register(event, Name, p.record, 100)
	}
}

func (p *AuditLogPlugin) record(ctx *plugin.HookContext) error {
	var elementID, memberID uint64
	var title string
	if e, ok := ctx.Input["element"].(*domain.ElementObject); ok && e != nil {
		elementID = e.ID
		title = e.Title
	}
	if m, ok := ctx.Input["member"].(*domain.Member); ok && m != nil {
		memberID = m.ID
	}
	p.logger.Info("[audit] %s element=%d title=%q member=%d", ctx.Event, elementID, title, memberID)
	return nil
}
