package app

import (
	"github.com/ayusman/wavein/internal/plugin"
	"github.com/ayusman/wavein/internal/store"
)

// HookBindings serves plugin bindings from the hooks table.
type HookBindings struct {
	hooks *store.HookRepository
}

// NewHookBindings returns a binding source backed by s.
func NewHookBindings(s *store.Store) *HookBindings {
	return &HookBindings{hooks: s.Hooks()}
}

// Bindings returns the enabled hooks for event.
func (b *HookBindings) Bindings(event string) ([]plugin.Binding, error) {
	hooks, err := b.hooks.ForEvent(event)
	if err != nil {
		return nil, err
	}
	out := make([]plugin.Binding, 0, len(hooks))
	for _, h := range hooks {
		out = append(out, plugin.Binding{
			Plugin: h.PluginName,
			Action: h.ActionName,
			Config: h.Config,
		})
	}
	return out, nil
}
