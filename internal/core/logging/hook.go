package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies request_id and remote from an event's context onto the
// event, so store operations logged during a request can be tied back to it.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if requestID := GetRequestID(ctx); requestID != "" {
		e.Str("request_id", requestID)
	}

	if remote := GetRemote(ctx); remote != "" {
		e.Str("remote", remote)
	}
}
