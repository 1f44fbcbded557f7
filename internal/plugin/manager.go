package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Manager 확장 활성화/비활성화 관리자
type Manager struct {
	hookManager *HookManager
	logger      Logger
	plugins     map[string]*PluginInfo
	mu          sync.RWMutex
}

// NewManager 새 Manager 생성
func NewManager(hm *HookManager, logger Logger) *Manager {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Manager{
		hookManager: hm,
		logger:      logger,
		plugins:     make(map[string]*PluginInfo),
	}
}

// EnableAll config의 extensions 맵에 있는 플러그인을 이름순으로 활성화
func (m *Manager) EnableAll(configs map[string]map[string]interface{}) error {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := m.Enable(name, configs[name]); err != nil {
			return err
		}
	}
	return nil
}

// Enable 플러그인 활성화: 팩토리 → 초기화 → Hook 등록
func (m *Manager) Enable(name string, config map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info, exists := m.plugins[name]; exists && info.Status == StatusEnabled {
		return nil // 이미 활성화됨
	}

	factory, ok := GetFactory(name)
	if !ok {
		return fmt.Errorf("plugin %s not found", name)
	}

	instance := factory()
	info := &PluginInfo{Name: name, Instance: instance}
	m.plugins[name] = info

	if config == nil {
		config = map[string]interface{}{}
	}
	if err := instance.Initialize(&PluginContext{Config: config, Logger: m.logger}); err != nil {
		info.Status = StatusError
		info.Error = err.Error()
		return fmt.Errorf("failed to initialize plugin %s: %w", name, err)
	}

	if ha, ok := instance.(HookAware); ok {
		ha.RegisterHooks(m.hookManager)
		m.logger.Info("Registered hooks for plugin: %s", name)
	}

	info.Status = StatusEnabled
	m.logger.Info("Enabled plugin: %s", name)
	return nil
}

// Disable 플러그인 비활성화 (Hook 해제 포함)
func (m *Manager) Disable(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, exists := m.plugins[name]
	if !exists {
		return fmt.Errorf("plugin %s not found", name)
	}
	if info.Status != StatusEnabled {
		return nil // 이미 비활성화됨
	}

	if s, ok := info.Instance.(Shutdowner); ok {
		if err := s.Shutdown(); err != nil {
			m.logger.Warn("Plugin %s shutdown error: %v", name, err)
		}
	}
	m.hookManager.Unregister(name)

	info.Status = StatusDisabled
	m.logger.Info("Disabled plugin: %s", name)
	return nil
}

// Plugins 상태 목록 (이름순)
func (m *Manager) Plugins() []PluginInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]PluginInfo, 0, len(m.plugins))
	for _, info := range m.plugins {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Shutdown 모든 활성 플러그인 비활성화
func (m *Manager) Shutdown() {
	m.mu.RLock()
	var names []string
	for name, info := range m.plugins {
		if info.Status == StatusEnabled {
			names = append(names, name)
		}
	}
	m.mu.RUnlock()

	for _, name := range names {
		_ = m.Disable(name)
	}
	m.logger.Info("All plugins shutdown complete")
}
