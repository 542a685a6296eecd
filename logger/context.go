package logger

import (
	"context"
)

// ContextKey is used for context values.
type ContextKey string

const (
	// ConnectionIDKey is the context key for the backend connection id.
	ConnectionIDKey ContextKey = "connection_id"
	// StatementNameKey is the context key for the prepared statement name.
	StatementNameKey ContextKey = "statement_name"
	// PortalNameKey is the context key for the bound portal name.
	PortalNameKey ContextKey = "portal_name"
)

// WithContextValue adds a value to the context for logging.
func WithContextValue(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// ExtractContextValues extracts logging-relevant values from context.
func ExtractContextValues(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	var args []any

	if connID, ok := ctx.Value(ConnectionIDKey).(string); ok {
		args = append(args, "connection_id", connID)
	}

	if stmt, ok := ctx.Value(StatementNameKey).(string); ok {
		args = append(args, "statement_name", stmt)
	}

	if portal, ok := ctx.Value(PortalNameKey).(string); ok {
		args = append(args, "portal_name", portal)
	}

	return args
}
