// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: one global instance initialized with Init().
//   - Context scoping: each request can carry its own scoped logger with
//     extra fields (request_id, session_id, ...) without building a new core.
//   - Environments: "dev" uses colored console output, "prod" uses JSON.
//   - Levels: debug, info, warn, error (configurable via LOG_LEVEL).
//
// # Usage
//
// Initialization (once, in main.go):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,
//	    Level: os.Getenv("LOG_LEVEL"),
//	})
//	defer logger.Sync()
//
// In controllers/services (with context):
//
//	log := logger.From(ctx)
//	log.Info("callback received", logger.Provider(provider))
//
// Without context (fallback to the singleton):
//
//	logger.L().Info("gateway started")
package logger
