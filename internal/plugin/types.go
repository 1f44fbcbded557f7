package plugin

// PluginStatus 플러그인 상태
type PluginStatus string

const (
	StatusDisabled PluginStatus = "disabled"
	StatusEnabled  PluginStatus = "enabled"
	StatusError    PluginStatus = "error"
)

// Plugin 확장 인터페이스 - 모든 확장이 구현해야 함
type Plugin interface {
	// Name 플러그인 이름 반환
	Name() string

	// Initialize 설정 주입 및 초기화
	Initialize(ctx *PluginContext) error
}

// PluginContext 플러그인에 전달되는 컨텍스트
type PluginContext struct {
	Config map[string]interface{}
	Logger Logger
}

// HookAware 선택적 인터페이스 - Hook을 등록하고 싶은 플러그인이 구현
type HookAware interface {
	RegisterHooks(hm *HookManager)
}

// Shutdowner 선택적 인터페이스 - 비활성화 시 정리 작업
type Shutdowner interface {
	Shutdown() error
}

// PluginInfo 활성화 시도된 플러그인 정보
type PluginInfo struct {
	Name     string       `json:"name"`
	Status   PluginStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
	Instance Plugin       `json:"-"`
}
