package plugin

import (
	"sort"
	"sync"
)

// HookType Action(반환값 없음) vs Filter(데이터 변환) vs Decider(허용/거부 판정)
type HookType int

const (
	HookTypeAction HookType = iota
	HookTypeFilter
	HookTypeDecider
)

// HookContext Hook 핸들러에 전달되는 컨텍스트
type HookContext struct {
	Event    string
	Input    map[string]interface{}
	output   map[string]interface{}
	decision *bool
}

// SetOutput 출력 데이터 설정 (Filter Hook에서 사용)
func (c *HookContext) SetOutput(data map[string]interface{}) {
	c.output = data
}

// GetOutput 출력 데이터 반환
func (c *HookContext) GetOutput() map[string]interface{} {
	if c.output != nil {
		return c.output
	}
	return c.Input
}

// Decide 판정 결과 설정 (Decider Hook에서 사용). 호출하지 않으면 기권.
func (c *HookContext) Decide(allowed bool) {
	c.decision = &allowed
}

// Decision 판정 결과 반환 (기권이면 nil)
func (c *HookContext) Decision() *bool {
	return c.decision
}

// HookHandler Hook 핸들러 함수
type HookHandler func(ctx *HookContext) error

// hookEntry 등록된 Hook 정보
type hookEntry struct {
	pluginName string
	handler    HookHandler
	priority   int
	hookType   HookType
}

// HookManager Hook 등록/실행 관리자 (thread-safe)
type HookManager struct {
	hooks  map[string][]hookEntry
	mu     sync.RWMutex
	logger Logger
}

// NewHookManager 새 HookManager 생성
func NewHookManager(logger Logger) *HookManager {
	return &HookManager{
		hooks:  make(map[string][]hookEntry),
		logger: logger,
	}
}

// Register Action Hook 등록
func (hm *HookManager) Register(event string, pluginName string, handler HookHandler, priority int) {
	hm.add(event, hookEntry{pluginName: pluginName, handler: handler, priority: priority, hookType: HookTypeAction})
}

// RegisterFilter Filter Hook 등록
func (hm *HookManager) RegisterFilter(event string, pluginName string, handler HookHandler, priority int) {
	hm.add(event, hookEntry{pluginName: pluginName, handler: handler, priority: priority, hookType: HookTypeFilter})
}

// RegisterDecider Decider Hook 등록 (권한 판정 확장)
func (hm *HookManager) RegisterDecider(event string, pluginName string, handler HookHandler, priority int) {
	hm.add(event, hookEntry{pluginName: pluginName, handler: handler, priority: priority, hookType: HookTypeDecider})
}

func (hm *HookManager) add(event string, entry hookEntry) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.hooks[event] = append(hm.hooks[event], entry)
	hm.sortHooks(event)
}

// entries 이벤트에 등록된 특정 타입의 Hook 스냅샷
func (hm *HookManager) entries(event string, hookType HookType) []hookEntry {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	var out []hookEntry
	for _, e := range hm.hooks[event] {
		if e.hookType == hookType {
			out = append(out, e)
		}
	}
	return out
}

// Do Action Hook 실행 (에러 로깅만, 블로킹 안 함)
func (hm *HookManager) Do(event string, data map[string]interface{}) {
	for _, entry := range hm.entries(event, HookTypeAction) {
		ctx := &HookContext{
			Event: event,
			Input: data,
		}
		if err := entry.handler(ctx); err != nil {
			hm.logger.Error("Hook error [%s] plugin=%s: %v", event, entry.pluginName, err)
		}
	}
}

// Apply Filter Hook 실행 (결과 반환, 체이닝)
func (hm *HookManager) Apply(event string, data map[string]interface{}) map[string]interface{} {
	current := data
	for _, entry := range hm.entries(event, HookTypeFilter) {
		ctx := &HookContext{
			Event: event,
			Input: current,
		}
		if err := entry.handler(ctx); err != nil {
			hm.logger.Error("Filter error [%s] plugin=%s: %v", event, entry.pluginName, err)
			continue
		}
		current = ctx.GetOutput()
	}
	return current
}

// Ask Decider Hook 실행.
// 기권(nil)을 제외한 답 중 하나라도 false면 false, 모두 true면 true, 답이 없으면 nil.
// 에러를 반환한 핸들러의 답은 무시된다.
func (hm *HookManager) Ask(event string, data map[string]interface{}) *bool {
	var result *bool
	for _, entry := range hm.entries(event, HookTypeDecider) {
		ctx := &HookContext{
			Event: event,
			Input: data,
		}
		if err := entry.handler(ctx); err != nil {
			hm.logger.Error("Decider error [%s] plugin=%s: %v", event, entry.pluginName, err)
			continue
		}
		d := ctx.Decision()
		if d == nil {
			continue
		}
		if !*d {
			denied := false
			return &denied
		}
		result = d
	}
	return result
}

// Has 이벤트에 등록된 Hook 존재 여부
func (hm *HookManager) Has(event string) bool {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return len(hm.hooks[event]) > 0
}

// Unregister 특정 플러그인의 모든 Hook 해제
func (hm *HookManager) Unregister(pluginName string) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	for event, entries := range hm.hooks {
		filtered := entries[:0]
		for _, e := range entries {
			if e.pluginName != pluginName {
				filtered = append(filtered, e)
			}
		}
		hm.hooks[event] = filtered
	}
}

// sortHooks priority 기준 오름차순 정렬 (낮은 priority가 먼저 실행)
// 호출자가 lock을 보유해야 함
func (hm *HookManager) sortHooks(event string) {
	sort.SliceStable(hm.hooks[event], func(i, j int) bool {
		return hm.hooks[event][i].priority < hm.hooks[event][j].priority
	})
}
