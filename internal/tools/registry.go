package tools

import (
	"context"
	"fmt"
	"sort"
)

// Tool is a named adapter callable with loosely typed inputs.
type Tool interface {
	Name() string
	Execute(ctx context.Context, inputs map[string]any) (output any, logs string, err error)
}

type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names lists registered tools in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tools))
	for n := range r.tools {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Call runs the named tool.
func (r *Registry) Call(ctx context.Context, name string, inputs map[string]any) (any, string, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, "", fmt.Errorf("unknown tool: %s", name)
	}
	if inputs == nil {
		inputs = map[string]any{}
	}
	return t.Execute(ctx, inputs)
}

// NewDefaultRegistry registers every adapter the pipeline exposes.
func NewDefaultRegistry(search *WebSearch) *Registry {
	reg := NewRegistry()
	reg.Register(&SearchTool{Search: search})
	reg.Register(&CalculateTool{})
	reg.Register(&CodeValidatorTool{})
	reg.Register(&HTMLToTextTool{})
	reg.Register(&DocumentExtractTool{})
	return reg
}
