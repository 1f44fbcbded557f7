package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type denyAll struct {
	event    string
	shutdown bool
}

func (d *denyAll) Name() string { return "deny-all" }

func (d *denyAll) Initialize(ctx *PluginContext) error {
	event, _ := ctx.Config["event"].(string)
	if event == "" {
		return errors.New("event is required")
	}
	d.event = event
	return nil
}

func (d *denyAll) RegisterHooks(hm *HookManager) {
	hm.RegisterDecider(d.event, d.Name(), func(ctx *HookContext) error {
		ctx.Decide(false)
		return nil
	}, 10)
}

func (d *denyAll) Shutdown() error {
	d.shutdown = true
	return nil
}

func TestManagerEnableDisable(t *testing.T) {
	instance := &denyAll{}
	RegisterFactory("deny-all", func() Plugin { return instance })

	hm := NewHookManager(NopLogger{})
	m := NewManager(hm, nil)

	require.NoError(t, m.EnableAll(map[string]map[string]interface{}{
		"deny-all": {"event": HookElementCanEdit},
	}))
	answer := hm.Ask(HookElementCanEdit, nil)
	require.NotNil(t, answer)
	assert.False(t, *answer)
	assert.Contains(t, GetRegisteredNames(), "deny-all")

	// idempotent
	require.NoError(t, m.Enable("deny-all", nil))

	require.NoError(t, m.Disable("deny-all"))
	assert.Nil(t, hm.Ask(HookElementCanEdit, nil))
	assert.True(t, instance.shutdown)
	assert.Equal(t, StatusDisabled, m.Plugins()[0].Status)
}

func TestManagerErrors(t *testing.T) {
	RegisterFactory("deny-all-broken", func() Plugin { return &denyAll{} })
	m := NewManager(NewHookManager(NopLogger{}), nil)

	assert.Error(t, m.Enable("missing", nil))
	assert.Error(t, m.Disable("missing"))

	err := m.Enable("deny-all-broken", nil)
	assert.Error(t, err)
	plugins := m.Plugins()
	require.Len(t, plugins, 1)
	assert.Equal(t, StatusError, plugins[0].Status)
	assert.Equal(t, "event is required", plugins[0].Error)
}
