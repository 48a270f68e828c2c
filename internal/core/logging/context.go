package logging

import "context"

type contextKey string

const (
	pluginIDKey  contextKey = "plugin_id"
	operationKey contextKey = "operation"
)

// WithPluginID adds a plugin ID to the context.
func WithPluginID(ctx context.Context, pluginID string) context.Context {
	return context.WithValue(ctx, pluginIDKey, pluginID)
}

// WithOperation adds an operation name (install, update, switch) to the context.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey, operation)
}

// GetPluginID retrieves the plugin ID from the context.
// Returns empty string if not present.
func GetPluginID(ctx context.Context) string {
	if id, ok := ctx.Value(pluginIDKey).(string); ok {
		return id
	}
	return ""
}

// GetOperation retrieves the operation name from the context.
// Returns empty string if not present.
func GetOperation(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey).(string); ok {
		return op
	}
	return ""
}
