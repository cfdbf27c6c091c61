package tool

import (
	"context"
	"fmt"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/registry"
)

// Registry holds the canonical tool catalogue and dispatches calls
// for the agent loop (C8), following pkg/vector.Registry's and
// pkg/embedders.Registry's pkg/registry.BaseRegistry[T] wrapping.
type Registry struct {
	*registry.BaseRegistry[CallableTool]
	toolsets []Toolset
}

func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[CallableTool]()}
}

// RegisterTool adds a tool to the canonical catalogue.
func (r *Registry) RegisterTool(t CallableTool) error {
	if t == nil {
		return apperr.New(apperr.KindValidation, "tool: cannot register nil tool")
	}
	return r.Register(t.Name(), t)
}

// RegisterToolset adds a dynamically-resolved group of tools (e.g. an
// MCP server). Toolsets are resolved fresh on every Definitions/
// Dispatch call rather than cached at registration time, so external
// servers can add/remove tools without a restart.
func (r *Registry) RegisterToolset(ts Toolset) {
	r.toolsets = append(r.toolsets, ts)
}

// Definitions returns the wire Definition for every registered
// CallableTool visible under allow, for inclusion in the next LLM
// request.
func (r *Registry) Definitions(allow Predicate) []Definition {
	if allow == nil {
		allow = AllowAll
	}
	defs := make([]Definition, 0, r.Count())
	for _, t := range r.List() {
		if allow(t.Name()) {
			defs = append(defs, ToDefinition(t))
		}
	}
	return defs
}

// Dispatch runs a single LLM-requested tool call and returns its
// envelope. Before dispatch the registry validates argument presence
// against the schema and rejects with a StatusError envelope rather
// than letting the tool panic or the dispatch surface a bare Go
// error (spec §4.4): a malformed call must still produce a
// toolResult event the agent loop can append and continue from.
//
// After the tool returns without a Go error, Dispatch enforces the
// singular-plural duality of the image, video and music URL and base64
// fields on the returned envelope.
func (r *Registry) Dispatch(ctx Context, call Call) Result {
	t, ok := r.lookup(ctx, call.Name)
	if !ok {
		return Result{CallID: call.ID, Envelope: Failure(fmt.Sprintf("unknown tool %q", call.Name), nil)}
	}

	if err := validateArgs(t.Schema(), call.Args); err != nil {
		return Result{CallID: call.ID, Envelope: Failure(err.Error(), nil)}
	}

	envelope, err := t.Call(ctx, call.Args)
	if err != nil {
		return Result{CallID: call.ID, Envelope: Failure(err.Error(), nil)}
	}
	if envelope == nil {
		envelope = Success(nil, "", nil)
	}
	if _, hasStatus := envelope["status"]; !hasStatus {
		envelope["status"] = StatusSuccess
	}
	enforceMediaDuality(envelope)

	return Result{CallID: call.ID, Envelope: envelope}
}

// lookup resolves a tool name against the static registry first,
// then against each registered Toolset in order.
func (r *Registry) lookup(ctx context.Context, name string) (CallableTool, bool) {
	if t, ok := r.Get(name); ok {
		return t, true
	}
	for _, ts := range r.toolsets {
		tools, err := ts.Tools(ctx)
		if err != nil {
			continue
		}
		for _, t := range tools {
			if t.Name() != name {
				continue
			}
			if ct, ok := t.(CallableTool); ok {
				return ct, true
			}
		}
	}
	return nil, false
}

// validateArgs checks that every property the schema marks required
// is present in args. It does not perform full JSON-schema type
// validation — malformed types surface as a tool-level error from
// mapToStruct-style conversion inside each tool, which Dispatch also
// turns into an error envelope.
func validateArgs(schema map[string]any, args map[string]any) error {
	required, _ := schema["required"].([]any)
	for _, r := range required {
		name, ok := r.(string)
		if !ok {
			continue
		}
		if _, present := args[name]; !present {
			return apperr.New(apperr.KindValidation, fmt.Sprintf("missing required argument %q", name))
		}
	}
	return nil
}
