package agent

import (
	"context"
	"fmt"
	"strings"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/cli"
	"github.com/universal-tool-calling-protocol/go-utcp/src/repository"
	utcptools "github.com/universal-tool-calling-protocol/go-utcp/src/tools"
	"github.com/universal-tool-calling-protocol/go-utcp/src/transports"
)

// inProcessTransport routes UTCP CallTool invocations for locally
// registered providers straight to their in-process handlers, delegating
// everything else to the transport it wraps.
type inProcessTransport struct {
	inner repository.ClientTransport
	tools map[string][]utcptools.Tool
}

// local resolves prov to the in-process tool list this shim owns for it.
// The returned name is the CLI provider's name; ok is false when prov is
// not a CLI provider or was never registered here.
func (t *inProcessTransport) local(prov base.Provider) (list []utcptools.Tool, name string, ok bool) {
	p, isCLI := prov.(*cli.CliProvider)
	if !isCLI {
		return nil, "", false
	}
	list, ok = t.tools[p.Name]
	return list, p.Name, ok
}

func (t *inProcessTransport) RegisterToolProvider(ctx context.Context, prov base.Provider) ([]utcptools.Tool, error) {
	if list, _, ok := t.local(prov); ok {
		return list, nil
	}
	if t.inner != nil {
		return t.inner.RegisterToolProvider(ctx, prov)
	}
	return nil, fmt.Errorf("no transport for provider %T", prov)
}

func (t *inProcessTransport) DeregisterToolProvider(ctx context.Context, prov base.Provider) error {
	if _, name, ok := t.local(prov); ok {
		delete(t.tools, name)
		return nil
	}
	if t.inner != nil {
		return t.inner.DeregisterToolProvider(ctx, prov)
	}
	return nil
}

func (t *inProcessTransport) CallTool(ctx context.Context, toolName string, args map[string]any, prov base.Provider, _ *string) (any, error) {
	list, name, ok := t.local(prov)
	if !ok {
		if t.inner != nil {
			return t.inner.CallTool(ctx, toolName, args, prov, nil)
		}
		return nil, fmt.Errorf("no transport for provider %T", prov)
	}
	for _, tool := range list {
		// The client may address the tool by its full dotted name or by
		// the bare suffix after the provider prefix.
		if tool.Name != toolName && !strings.HasSuffix(tool.Name, "."+toolName) {
			continue
		}
		if tool.Handler == nil {
			return nil, fmt.Errorf("tool %s has no handler", toolName)
		}
		return tool.Handler(nil, args)
	}
	return nil, fmt.Errorf("tool %s not found for provider %s", toolName, name)
}

func (t *inProcessTransport) CallToolStream(ctx context.Context, toolName string, args map[string]any, prov base.Provider) (transports.StreamResult, error) {
	if _, name, ok := t.local(prov); ok {
		return nil, fmt.Errorf("streaming not supported for tool %s (provider %s)", toolName, name)
	}
	if t.inner != nil {
		return t.inner.CallToolStream(ctx, toolName, args, prov)
	}
	return nil, fmt.Errorf("no transport for provider %T", prov)
}

// AsUTCPTool exposes the whole agent as one UTCP tool so other agent
// runtimes can delegate metastore questions to it. Arguments:
//   - message (required): the natural-language request
//   - session_key (optional): continue an existing conversation
func (a *Agent) AsUTCPTool(name, description string) utcptools.Tool {
	providerName := strings.TrimSpace(name)
	if parts := strings.Split(name, "."); len(parts) > 1 {
		providerName = parts[0]
	}
	return utcptools.Tool{
		Name:        name,
		Description: description,
		Provider: &base.BaseProvider{
			Name:         providerName,
			ProviderType: base.ProviderCLI, // in-process handler, no remote transport
		},
		Inputs: utcptools.ToolInputOutputSchema{
			Type: "object",
			Properties: map[string]any{
				"message": map[string]any{
					"type":        "string",
					"description": "Natural-language request about the Hive metastore.",
				},
				"session_key": map[string]any{
					"type":        "string",
					"description": "Optional session key to continue a conversation.",
				},
			},
			Required: []string{"message"},
		},
		Outputs: utcptools.ToolInputOutputSchema{
			Type: "object",
			Properties: map[string]any{
				"answer":      map[string]any{"type": "string"},
				"session_key": map[string]any{"type": "string"},
			},
		},
		Handler: utcptools.ToolHandler(func(_ map[string]interface{}, inputs map[string]interface{}) (map[string]interface{}, error) {
			message, ok := inputs["message"].(string)
			if !ok || strings.TrimSpace(message) == "" {
				return nil, fmt.Errorf("missing or invalid 'message'")
			}
			sessionKey, _ := inputs["session_key"].(string)

			ctx := context.Background()
			reply, err := a.HandleTurn(ctx, strings.TrimSpace(sessionKey), message)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"answer":      reply.Answer,
				"session_key": reply.SessionKey,
			}, nil
		}),
	}
}

// RegisterAsUTCPProvider installs the agent on a UTCP client behind an
// in-process transport shim, so CallTool goes directly to HandleTurn.
func (a *Agent) RegisterAsUTCPProvider(ctx context.Context, client utcp.UtcpClientInterface, name, description string) error {
	if client == nil {
		return fmt.Errorf("utcp client is nil")
	}

	tool := a.AsUTCPTool(name, description)
	providerName := strings.TrimSpace(name)
	if parts := strings.Split(name, "."); len(parts) > 1 {
		providerName = parts[0]
	}

	tp := &cli.CliProvider{
		BaseProvider: base.BaseProvider{
			Name:         providerName,
			ProviderType: base.ProviderCLI,
		},
	}

	transportsMap := client.GetTransports()
	if transportsMap == nil {
		return fmt.Errorf("utcp client transports map is nil")
	}

	existing := transportsMap[string(base.ProviderCLI)]
	shim, ok := existing.(*inProcessTransport)
	if !ok {
		shim = &inProcessTransport{inner: existing}
		transportsMap[string(base.ProviderCLI)] = shim
	}
	if shim.tools == nil {
		shim.tools = make(map[string][]utcptools.Tool)
	}
	shim.tools[tp.Name] = []utcptools.Tool{tool}

	_, err := client.RegisterToolProvider(ctx, tp)
	return err
}
