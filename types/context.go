package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const (
	keyTraceID   contextKey = "trace_id"
	keyRequestID contextKey = "request_id"
	keySessionID contextKey = "session_id"
	keyTool      contextKey = "tool"
)

// WithTraceID adds trace ID to context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, keyTraceID, traceID)
}

// TraceID extracts trace ID from context.
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyTraceID).(string)
	return v, ok && v != ""
}

// WithRequestID adds the transport request ID to context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID extracts the transport request ID from context.
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)
	return v, ok && v != ""
}

// WithSessionID adds a thinking or ReAct session ID to context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, keySessionID, sessionID)
}

// SessionID extracts the session ID from context.
func SessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keySessionID).(string)
	return v, ok && v != ""
}

// WithTool adds the tool name being executed to context.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, keyTool, tool)
}

// Tool extracts the tool name from context.
func Tool(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyTool).(string)
	return v, ok && v != ""
}
