package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// renderPrompt flattens a Request into a single prompt for backends that
// have no native tool-calling API. Tools are announced as directives the
// model emits as plain text; ParseToolDirective recovers them.
func renderPrompt(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	if req.Context != "" {
		b.WriteString("Relevant documentation:\n")
		b.WriteString(req.Context)
		b.WriteString("\n\n")
	}
	if len(req.Tools) > 0 {
		b.WriteString("You can call the following tools. To call one, reply with a single line:\n")
		b.WriteString("tool:<name> <json arguments>\n\nAvailable tools:\n")
		for _, t := range req.Tools {
			b.WriteString("- ")
			b.WriteString(t.Name)
			if t.Description != "" {
				b.WriteString(": ")
				b.WriteString(t.Description)
			}
			if params := renderParams(t.Parameters); params != "" {
				b.WriteString(" ")
				b.WriteString(params)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleTool:
			fmt.Fprintf(&b, "tool %s returned: %s\n", m.ToolName, m.Content)
		default:
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}
	b.WriteString("assistant:")
	return b.String()
}

func renderParams(params map[string]any) string {
	props, ok := params["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return ""
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return "(args: " + strings.Join(names, ", ") + ")"
}

// ParseToolDirective scans text for a "tool:<name> {json}" line. It returns
// the call and true when one is found; malformed JSON after a directive is
// reported as a found-but-invalid call so the caller can feed the error back.
func ParseToolDirective(text string) (ToolCall, bool, error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "tool:") {
			continue
		}
		rest := strings.TrimPrefix(line, "tool:")
		name := rest
		argsJSON := ""
		if i := strings.IndexAny(rest, " \t"); i >= 0 {
			name = rest[:i]
			argsJSON = strings.TrimSpace(rest[i:])
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		call := ToolCall{Name: name, Arguments: map[string]any{}}
		if argsJSON != "" {
			if err := json.Unmarshal([]byte(argsJSON), &call.Arguments); err != nil {
				return call, true, fmt.Errorf("tool directive %q has invalid arguments: %w", name, err)
			}
		}
		return call, true, nil
	}
	return ToolCall{}, false, nil
}
