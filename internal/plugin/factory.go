package plugin

import (
	"sort"
	"sync"
)

// PluginFactory 플러그인 인스턴스 생성 팩토리 함수
type PluginFactory func() Plugin

var (
	// 내장 플러그인 팩토리 레지스트리
	builtInFactories = make(map[string]PluginFactory)
	factoryMu        sync.RWMutex
)

// RegisterFactory 내장 플러그인 팩토리 등록
// 각 플러그인 패키지의 init()에서 호출됨
func RegisterFactory(name string, factory PluginFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	builtInFactories[name] = factory
}

// GetFactory 특정 플러그인 팩토리 반환
func GetFactory(name string) (PluginFactory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	factory, exists := builtInFactories[name]
	return factory, exists
}

// GetRegisteredNames 등록된 플러그인 이름 목록 반환 (정렬됨)
func GetRegisteredNames() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	names := make([]string, 0, len(builtInFactories))
	for name := range builtInFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
