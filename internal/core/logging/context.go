package logging

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	remoteKey    contextKey = "remote"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithRemote adds the client address to the context.
func WithRemote(ctx context.Context, remote string) context.Context {
	return context.WithValue(ctx, remoteKey, remote)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetRemote retrieves the client address from the context.
// Returns empty string if not present.
func GetRemote(ctx context.Context) string {
	if remote, ok := ctx.Value(remoteKey).(string); ok {
		return remote
	}
	return ""
}
