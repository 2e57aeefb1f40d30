package tools

import (
	"context"
	"fmt"

	"github.com/hivegate/hive-agent/src/models"
)

// Outcome is the normalized result of one tool invocation. Every failure
// mode lands here as data the model can read, never as a raw error string
// leaking implementation detail.
type Outcome struct {
	OK      bool
	Payload any    // tool result on success
	Kind    string // validation, execution, unknown_tool
	Message string // human-readable failure description
}

const (
	KindValidation  = "validation"
	KindExecution   = "execution"
	KindUnknownTool = "unknown_tool"
)

// Registry is the immutable set of tools the agent may call. Construction
// fails fast on duplicate or unnamed tools; after that, lookups never
// mutate shared state, so one registry serves all sessions.
type Registry struct {
	defs  map[string]Definition
	order []string
}

func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if d.Run == nil {
			return nil, fmt.Errorf("tool %q has no run function", d.Name)
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", d.Name)
		}
		r.defs[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// Resolve returns the definition for name.
func (r *Registry) Resolve(name string) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Specs lists every tool in registration order for the model request.
func (r *Registry) Specs() []models.ToolSpec {
	out := make([]models.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name].Spec())
	}
	return out
}

// Invoke validates and runs one tool call. Validation failures short-circuit
// before the tool function runs.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) Outcome {
	d, ok := r.defs[name]
	if !ok {
		return Outcome{
			Kind:    KindUnknownTool,
			Message: fmt.Sprintf("no tool named %q is available", name),
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := d.CheckArgs(args); err != nil {
		return Outcome{
			Kind:    KindValidation,
			Message: err.Error(),
		}
	}
	res, err := d.Run(ctx, args)
	if err != nil {
		return Outcome{
			Kind:    KindExecution,
			Message: err.Error(),
		}
	}
	return Outcome{OK: true, Payload: res}
}
