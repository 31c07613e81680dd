// Package logging provides the logging facade shared by the cbl bridge and
// the in-memory native heap.
//
// The Logger interface wraps the subset of log/slog the bridge needs. It is
// intentionally small so applications can route bridge diagnostics into
// their own logging system:
//
//	type Logger interface {
//	    Debug(ctx context.Context, msg string, args ...any)
//	    Info(ctx context.Context, msg string, args ...any)
//	    Warn(ctx context.Context, msg string, args ...any)
//	    Error(ctx context.Context, msg string, args ...any)
//	    With(args ...any) Logger
//	}
//
// # Default Implementation
//
//	// Use slog.Default()
//	logger := logging.New(nil)
//
//	// Text handler on stderr at the given level
//	logger := logging.NewWithLevel(os.Stderr, slog.LevelDebug)
//
// # Native Addresses
//
// Native handles are logged through Pointer so that every message formats
// addresses the same way:
//
//	logger.Warn(ctx, "handle released by finalizer", logging.Pointer("ref", p))
package logging
