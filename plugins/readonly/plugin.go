// 읽기 전용 모드 플러그인 진입점
package readonly

import (
	"fmt"

	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/plugin"
)

// Name 플러그인 이름
const Name = "readonly"

// init 플러그인 팩토리 자동 등록
func init() {
	plugin.RegisterFactory(Name, func() plugin.Plugin {
		return New()
	})
}

// ReadOnlyPlugin 점검 중 요소 편집/삭제/생성을 막는 플러그인.
// exempt_member_ids 에 포함된 회원은 기권 처리되어 기본 권한 판정을 따른다.
type ReadOnlyPlugin struct {
	exempt map[uint64]bool
	logger plugin.Logger
}

func New() *ReadOnlyPlugin             { return &ReadOnlyPlugin{exempt: map[uint64]bool{}} }
func (p *ReadOnlyPlugin) Name() string { return Name }

func (p *ReadOnlyPlugin) Initialize(ctx *plugin.PluginContext) error {
	p.logger = ctx.Logger

	raw, ok := ctx.Config["exempt_member_ids"]
	if !ok {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("exempt_member_ids must be a list, got %T", raw)
	}
	for _, v := range list {
		id, err := toID(v)
		if err != nil {
			return err
		}
		p.exempt[id] = true
	}
	return nil
}

// RegisterHooks 쓰기 계열 판정 Hook 등록. 조회는 건드리지 않음
func (p *ReadOnlyPlugin) RegisterHooks(hm *plugin.HookManager) {
	for _, event := range []string{
		plugin.HookElementCanEdit,
		plugin.HookElementCanDelete,
		plugin.HookElementCanCreate,
	} {
		hm.RegisterDecider(event, Name, p.decide, 1)
	}
}

func (p *ReadOnlyPlugin) decide(ctx *plugin.HookContext) error {
	if m, ok := ctx.Input["member"].(*domain.Member); ok && m != nil && p.exempt[m.ID] {
		return nil
	}
	ctx.Decide(false)
	return nil
}

func toID(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case int:
		if n > 0 {
			return uint64(n), nil
		}
	case int64:
		if n > 0 {
			return uint64(n), nil
		}
	case uint64:
		return n, nil
	case float64:
		if n > 0 && n == float64(uint64(n)) {
			return uint64(n), nil
		}
	}
	return 0, fmt.Errorf("invalid member id %v", v)
}
