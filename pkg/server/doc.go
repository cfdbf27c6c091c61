// Package server implements the Request Coordinator (C10, spec §4.10):
// the plain REST/NDJSON HTTP surface described in spec §6, binding
// each inbound request to a fresh tenant.Context and driving the
// Agent Loop (C8) or one of the management endpoints.
//
// Grounded on the teacher's pkg/server/http.go: the same middleware
// ordering (CORS, then logging, then observability, outermost) and
// the same graceful-shutdown shape (context-bounded Shutdown with a
// fixed grace period), narrowed from an A2A JSON-RPC/gRPC dual
// transport to a single REST/NDJSON one, and from a multi-agent
// registry to the fixed route table of spec §6.
package server
