package ports

import "context"

// Fields carries structured key/value context attached to a log entry.
type Fields = map[string]interface{}

// Logger is the logging interface every component receives at construction.
// Only the first Fields argument is used.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	// Error logs err together with msg at Error level.
	Error(ctx context.Context, err error, msg string, fields ...Fields)
}
