package tools

import (
	"context"
	"fmt"

	"github.com/hivegate/hive-agent/src/hive"
	"github.com/hivegate/hive-agent/src/models"
)

// Param describes one tool argument. Items is set for arrays and Fields
// for objects.
type Param struct {
	Type        string // string, integer, number, boolean, array, object
	Description string
	Required    bool
	Items       *Param
	Fields      map[string]Param
}

// Definition is a registered tool: its schema plus the function that runs it.
type Definition struct {
	Name        string
	Description string
	Params      map[string]Param
	Run         func(ctx context.Context, args map[string]any) (hive.Result, error)
}

// Schema renders the parameter list as a JSON Schema object, the format
// every completion backend consumes.
func (d Definition) Schema() map[string]any {
	props := make(map[string]any, len(d.Params))
	var required []string
	for name, p := range d.Params {
		props[name] = p.schema()
		if p.Required {
			required = append(required, name)
		}
	}
	obj := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		obj["required"] = required
	}
	return obj
}

func (p Param) schema() map[string]any {
	s := map[string]any{"type": p.Type}
	if p.Description != "" {
		s["description"] = p.Description
	}
	if p.Type == "array" && p.Items != nil {
		s["items"] = p.Items.schema()
	}
	if p.Type == "object" && len(p.Fields) > 0 {
		props := make(map[string]any, len(p.Fields))
		var required []string
		for name, f := range p.Fields {
			props[name] = f.schema()
			if f.Required {
				required = append(required, name)
			}
		}
		s["properties"] = props
		if len(required) > 0 {
			s["required"] = required
		}
	}
	return s
}

// Spec converts the definition into the model-facing tool description.
func (d Definition) Spec() models.ToolSpec {
	return models.ToolSpec{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Schema(),
	}
}

// CheckArgs validates args against the schema before anything touches the
// network: required fields present, no unknown fields, types match.
func (d Definition) CheckArgs(args map[string]any) error {
	for name, p := range d.Params {
		v, ok := args[name]
		if !ok {
			if p.Required {
				return fmt.Errorf("missing required argument %q", name)
			}
			continue
		}
		if err := p.check(name, v); err != nil {
			return err
		}
	}
	for name := range args {
		if _, ok := d.Params[name]; !ok {
			return fmt.Errorf("unknown argument %q", name)
		}
	}
	return nil
}

func (p Param) check(name string, v any) error {
	switch p.Type {
	case "string":
		if _, ok := v.(string); !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	case "integer", "number":
		// JSON numbers decode as float64.
		switch v.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("argument %q must be a number", name)
		}
	case "array":
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("argument %q must be an array", name)
		}
		if p.Items != nil {
			for i, item := range items {
				if err := p.Items.check(fmt.Sprintf("%s[%d]", name, i), item); err != nil {
					return err
				}
			}
		}
	case "object":
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("argument %q must be an object", name)
		}
		for fname, f := range p.Fields {
			fv, present := obj[fname]
			if !present {
				if f.Required {
					return fmt.Errorf("argument %q missing required field %q", name, fname)
				}
				continue
			}
			if err := f.check(name+"."+fname, fv); err != nil {
				return err
			}
		}
	}
	return nil
}
