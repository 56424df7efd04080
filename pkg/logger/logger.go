package logger

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

type contextKey struct{}

// Init configures the global logger. level accepts any logrus level name and
// falls back to debug; jsonOutput switches to the JSON formatter.
func Init(level string, jsonOutput bool) {
	Logger.SetOutput(os.Stdout)
	if jsonOutput {
		Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
			PadLevelText:    true,
		})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.DebugLevel
	}
	Logger.SetLevel(parsed)
}

// ContextWithFields returns a context whose logger carries fields in
// addition to any fields already attached to ctx.
func ContextWithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	return context.WithValue(ctx, contextKey{}, FromContext(ctx).WithFields(fields))
}

// FromContext returns the logger attached to ctx, or the global logger.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(contextKey{}).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(Logger)
}

func Info(msg string, fields map[string]interface{}) {
	Logger.WithFields(fields).Info(msg)
}

func Error(err error, msg string, fields map[string]interface{}) {
	Logger.WithError(err).WithFields(fields).Error(msg)
}

func Warn(msg string, fields map[string]interface{}) {
	Logger.WithFields(fields).Warn(msg)
}

func Debug(msg string, fields map[string]interface{}) {
	Logger.WithFields(fields).Debug(msg)
}
