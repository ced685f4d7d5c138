package hook

import (
	"fmt"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glorpus-work/apprepo/pkg/errutils"
)

// TengoExecutor compiles and runs Tengo scripts.
type TengoExecutor struct {
	scripts map[Type]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates an executor without scripts.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[Type]string),
	}
}

func variables(ctx Context) map[string]interface{} {
	indexers := make([]interface{}, 0, len(ctx.Indexers))
	for _, ix := range ctx.Indexers {
		indexers = append(indexers, ix)
	}
	return map[string]interface{}{
		"index":        ctx.Index,
		"filename":     ctx.Filename,
		"path":         ctx.Path,
		"name":         ctx.Name,
		"version":      ctx.Version,
		"platform":     ctx.Platform,
		"architecture": ctx.Architecture,
		"extension":    ctx.Extension,
		"indexers":     indexers,
		"err":          "",
	}
}

// Execute runs the script registered for hookType. A missing script is a no-op.
// Runtime faults of the script, which the Tengo VM raises as panics, are
// returned as ErrHookExecution.
func (e *TengoExecutor) Execute(hookType Type, ctx Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", hookType, errutils.ErrHookExecution, r)
		}
	}()

	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return nil
	}

	s := tengo.NewScript([]byte(script))
	s.SetImports(stdlib.GetModuleMap("fmt", "strings", "text", "times"))

	for name, value := range variables(ctx) {
		if err := s.Add(name, value); err != nil {
			return fmt.Errorf("failed to add %s to script: %w", name, err)
		}
	}
	for k, v := range ctx.Vars {
		if err := s.Add(k, v); err != nil {
			return fmt.Errorf("failed to add variable '%s' to script: %w", k, err)
		}
	}

	compiled, err := s.Run()
	if err != nil {
		return fmt.Errorf("%s: %w: %w", hookType, errutils.ErrHookExecution, err)
	}

	switch v := compiled.Get("err").Object().(type) {
	case *tengo.Error:
		msg, _ := tengo.ToString(v.Value)
		return fmt.Errorf("%s: %w: %s", hookType, errutils.ErrHookScript, msg)
	case *tengo.String:
		if v.Value != "" {
			return fmt.Errorf("%s: %w: %s", hookType, errutils.ErrHookScript, v.Value)
		}
	}
	return nil
}

func (e *TengoExecutor) AddScript(hookType Type, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

func (e *TengoExecutor) RemoveScript(hookType Type) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.scripts, hookType)
}

func (e *TengoExecutor) HasScript(hookType Type) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
