// Package logging provides a minimal logging interface and slog adapters.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn,
// Error) that the store runtime and effects use. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - SanitizingHandler, an slog.Handler that redacts credential attributes
//
// Usage:
//
//	logger := logging.NewLogger(logging.Config{Level: logging.LevelDebug, Format: "text"})
//	store, _ := loginflow.NewLoginStore(service, loginflow.WithLogger(logger))
package logging
