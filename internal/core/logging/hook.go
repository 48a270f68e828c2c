package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts plugin_id and operation from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if pluginID := GetPluginID(ctx); pluginID != "" {
		e.Str("plugin_id", pluginID)
	}

	if operation := GetOperation(ctx); operation != "" {
		e.Str("operation", operation)
	}
}
