// Copyright (c) cogniflow Authors.
// Licensed under the MIT License.

// Package api documents the cogniflow HTTP surface. The handlers live in
// api/handlers; this package holds no code.
//
// # Endpoints
//
//	GET  /v1/tools               list the callable tools
//	POST /v1/tools/{name}        call a tool; the body is its flat argument object
//	GET  /v1/resources           list readable resources
//	GET  /v1/resources?uri=URI   read one resource (memory://working, state://cognitive, knowledge://graph)
//	GET  /v1/ws                  websocket channel for tools/list, tools/call, resources/list, resources/read
//	GET  /health, /healthz       liveness
//	GET  /ready                  readiness, pings the snapshot store
//	GET  /metrics                Prometheus metrics (metrics port)
//
// # Envelope
//
// Every JSON response is wrapped as
//
//	{"success": true, "data": {...}, "timestamp": "..."}
//	{"success": false, "error": {"code": "INVALID_ARGUMENT", "message": "...", "operation": "memory_store"}, "timestamp": "..."}
//
// Websocket frames carry an id that the reply echoes:
//
//	-> {"id": "1", "method": "tools/call", "tool": "reason", "arguments": {"query": "..."}}
//	<- {"id": "1", "result": {...}}
package api
