package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// Component returns a logger tagged with the emitting component.
// Services use it for audit lines on state transitions.
func Component(name string) *slog.Logger {
	return slog.With("component", name)
}

// WithActor scopes a logger to the identity performing an operation.
func WithActor(logger *slog.Logger, actorID, role string) *slog.Logger {
	return logger.With(
		"actor_id", actorID,
		"actor_role", role,
	)
}
