package hook

import (
	"fmt"
	"slices"
)

// DefaultManager runs hooks through a TengoExecutor.
type DefaultManager struct {
	executor *TengoExecutor
}

// NewManager creates a manager without hooks.
func NewManager() *DefaultManager {
	return &DefaultManager{executor: NewTengoExecutor()}
}

func (m *DefaultManager) Execute(hookType Type, ctx Context) error {
	if ctx.Vars == nil {
		ctx.Vars = map[string]interface{}{}
	}
	return m.executor.Execute(hookType, ctx)
}

func (m *DefaultManager) AddHook(hook Hook) error {
	if hook.Type == "" {
		return fmt.Errorf("hook type cannot be empty")
	}
	if !slices.Contains(Types(), hook.Type) {
		return fmt.Errorf("unsupported hook event: %s", hook.Type)
	}
	m.executor.AddScript(hook.Type, hook.Content)
	return nil
}

func (m *DefaultManager) RemoveHook(hookType Type) error {
	if hookType == "" {
		return fmt.Errorf("hook type cannot be empty")
	}
	m.executor.RemoveScript(hookType)
	return nil
}

func (m *DefaultManager) HasHook(hookType Type) bool {
	return m.executor.HasScript(hookType)
}
