package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ServiceName is attached to every entry as the "service" field.
const ServiceName = "medscan"

var (
	Logger *logrus.Logger
	base   *logrus.Entry
)

func init() {
	Logger = logrus.New()

	Logger.SetOutput(os.Stdout)
	SetLevel(os.Getenv("LOG_LEVEL"))

	// Set JSON formatter for structured logging
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	base = Logger.WithField("service", ServiceName)
}

// SetLevel maps a LOG_LEVEL string onto the logger, defaulting to info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		Logger.SetLevel(logrus.DebugLevel)
	case "warn":
		Logger.SetLevel(logrus.WarnLevel)
	case "error":
		Logger.SetLevel(logrus.ErrorLevel)
	default:
		Logger.SetLevel(logrus.InfoLevel)
	}
}

// Entry returns the service-scoped entry the helpers below build on.
func Entry() *logrus.Entry {
	return base
}

// Component scopes log lines to one part of the pipeline.
func Component(name string) *logrus.Entry {
	return base.WithField("component", name)
}

// WithFields creates a new entry with the given fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return base.WithFields(fields)
}

// WithField creates a new entry with a single field
func WithField(key string, value interface{}) *logrus.Entry {
	return base.WithField(key, value)
}

// WithError creates a new entry with an error field
func WithError(err error) *logrus.Entry {
	return base.WithError(err)
}

func Info(msg string) {
	base.Info(msg)
}

func Error(msg string) {
	base.Error(msg)
}

func Debug(msg string) {
	base.Debug(msg)
}

func Warn(msg string) {
	base.Warn(msg)
}
