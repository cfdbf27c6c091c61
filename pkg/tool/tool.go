// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tool implements the Tool Registry (C4): the canonical set
// of agent-callable tools, their JSON schemas, and the envelope
// contract every call result must satisfy (spec §4.4).
//
// This generalizes the teacher's agent.CallbackContext-bound Tool
// system to the (brandId, userId) tenant model: tools receive a
// tool.Context carrying a tenant.Context snapshot instead of an
// ADK-style callback context, and CallableTool.Call always returns
// the {status, content, message, ...} envelope rather than an
// arbitrary map.
package tool

import (
	"context"

	"github.com/brandloom/agentforge/pkg/tenant"
)

// Context is the per-call handle passed to every tool invocation. It
// embeds context.Context so tools observe cancellation/deadlines the
// same way any other blocking call in the runtime does, and exposes
// the tenant snapshot the agent loop (C8) composed for this request.
type Context interface {
	context.Context

	// Tenant returns the (brandId, userId) context this call is
	// scoped to, including resolved media (C3) and per-request
	// model overrides.
	Tenant() tenant.Context

	// FunctionCallID identifies this specific tool invocation within
	// the turn, for correlating toolCall/toolResult session events.
	FunctionCallID() string
}

// runtimeContext is the concrete Context the agent loop constructs
// for each tool dispatch.
type runtimeContext struct {
	context.Context
	tenant tenant.Context
	callID string
}

// NewContext builds a Context for a single tool invocation.
func NewContext(ctx context.Context, t tenant.Context, callID string) Context {
	return &runtimeContext{Context: ctx, tenant: t, callID: callID}
}

func (c *runtimeContext) Tenant() tenant.Context { return c.tenant }
func (c *runtimeContext) FunctionCallID() string { return c.callID }

// Tool is the minimal interface every agent-callable capability must
// implement (spec §4.4).
type Tool interface {
	// Name is the unique, stable identifier the LLM uses to invoke
	// this tool (e.g. "generateImage").
	Name() string

	// Description is shown to the LLM to help it decide when to use
	// this tool.
	Description() string

	// IsLongRunning reports whether this tool returns a job handle
	// immediately and completes asynchronously (spec §4.11), as
	// opposed to resolving within the call.
	IsLongRunning() bool

	// RequiresApproval reports whether this tool's effects must be
	// confirmed by a human before dispatch. None of the canonical
	// tools require this today; the hook exists for future tools
	// with irreversible side effects.
	RequiresApproval() bool
}

// CallableTool is a Tool that can be invoked synchronously. Call
// always returns a well-formed envelope (spec §4.4): on success
// result["status"] == StatusSuccess; on failure it returns a non-nil
// envelope with StatusError rather than a Go error, except for
// programmer errors (malformed arguments failing schema validation),
// which the registry itself turns into an error envelope before the
// tool ever runs.
type CallableTool interface {
	Tool
	Schema() map[string]any
	Call(ctx Context, args map[string]any) (map[string]any, error)
}

// Predicate decides whether a tool is visible/usable in a given
// context — used to scope the canonical catalogue per brand or per
// session feature flag.
type Predicate func(toolName string) bool

// AllowAll permits every tool.
func AllowAll(string) bool { return true }

// DenyAll permits no tool.
func DenyAll(string) bool { return false }

// StringPredicate builds a Predicate from an explicit allow-list.
func StringPredicate(allowed ...string) Predicate {
	set := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		set[name] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}

// Not inverts a Predicate.
func Not(p Predicate) Predicate {
	return func(name string) bool { return !p(name) }
}

// Or combines predicates: a name passes if any predicate passes it.
func Or(predicates ...Predicate) Predicate {
	return func(name string) bool {
		for _, p := range predicates {
			if p(name) {
				return true
			}
		}
		return false
	}
}

// Combine requires every predicate to pass (logical AND).
func Combine(predicates ...Predicate) Predicate {
	return func(name string) bool {
		for _, p := range predicates {
			if !p(name) {
				return false
			}
		}
		return true
	}
}

// Toolset is a named group of tools resolved dynamically (e.g. an
// MCP server's tool list). Kept for extensibility: the canonical
// catalogue in this repo is registered directly, but the Registry
// below can also accept external Toolsets without code changes.
type Toolset interface {
	Name() string
	Tools(ctx context.Context) ([]Tool, error)
}

// Definition is the wire shape an LLMPort expects for each tool the
// model may call (spec §4.1's ToolDefinition, duplicated here as the
// registry's own view so the two packages stay decoupled).
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToDefinition projects a CallableTool into its wire Definition.
func ToDefinition(t CallableTool) Definition {
	return Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Schema(),
	}
}

// Call is a single LLM-requested tool invocation awaiting dispatch.
type Call struct {
	ID   string
	Name string
	Args map[string]any
}

// Result is a dispatched call's outcome, ready to append to the
// session log as a toolResult event (spec §4.5).
type Result struct {
	CallID   string
	Envelope map[string]any
}
