package utils

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger
func NewLogger(level string) *logrus.Logger {
	return NewLoggerWithOutput(level, os.Stderr)
}

// NewLoggerWithOutput creates a logger writing to out.
// Command output goes to stdout, so logs default to stderr.
func NewLoggerWithOutput(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Parse log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	return logger
}

// RunIDHook tags every entry with the id of the current command run
type RunIDHook struct {
	RunID string
}

// NewRunIDHook creates a hook with a fresh run id
func NewRunIDHook() *RunIDHook {
	return &RunIDHook{RunID: uuid.NewString()}
}

// Levels implements logrus.Hook
func (h *RunIDHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (h *RunIDHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["run_id"]; !ok {
		entry.Data["run_id"] = h.RunID
	}
	return nil
}

type runIDKey struct{}

// WithRunID stores a run id in ctx
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the run id stored in ctx, or an empty string
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
