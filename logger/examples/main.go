package main

import (
	"context"
	"fmt"
	"time"

	"github.com/guileen/pgwirebind/logger"
)

func main() {
	// Basic logging
	logger.Info("driver started", "version", "1.0.0")

	// Context-aware logging
	ctx := context.Background()
	ctx = logger.WithContextValue(ctx, logger.ConnectionIDKey, "conn-12345")
	ctx = logger.WithContextValue(ctx, logger.StatementNameKey, "stmt1")

	logger.InfoContext(ctx, "binding parameters", "portal", "", "n_params", 2)

	// Structured logging with fields
	logger.Warn("buffer nearly full",
		logger.Float64("fill_ratio", 0.92),
		logger.String("component", "bytebuffer"),
		logger.Duration("since_last_flush", time.Since(time.Now().Add(-time.Millisecond*3))))

	// Error logging
	err := fmt.Errorf("array element oid mismatch")
	logger.Error("array codec failed",
		logger.ErrorField(err),
		logger.String("component", "arraycodec"))

	// Debug logging (only shown if log level is DEBUG)
	logger.Debug("codec suspended",
		logger.String("state", "WritingElements"),
		logger.Any("wrote_element_len", true))

	// Using With for adding context
	bindLogger := logger.With(
		logger.String("component", "bindwriter"),
		logger.String("driver_version", "2.1.0"))

	bindLogger.Info("bind message flushed",
		logger.String("portal", ""),
		logger.Int("n_params", 2))

	dbLogger := logger.With(logger.Component("arraycodec"))
	dbLogger.Info("array decoded",
		logger.Int("ndim", 2),
		logger.Duration("duration", 5*time.Millisecond),
		logger.Int64("elements", 6))
}
