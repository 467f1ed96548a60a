// internal/infra/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"

	"silah_dispatcher/internal/infra/config"

	"github.com/sirupsen/logrus"
)

const serviceName = "silah-dispatcher"

// Log is the global logger instance
var Log = logrus.New()

// Init configures the global logger from the application config and writes to stdout.
func Init(cfg *config.AppConfig) {
	configure(Log, cfg.LogLevel, cfg.Environment, os.Stdout)
	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Info("Logger initialized.")
}

func configure(l *logrus.Logger, level, environment string, out io.Writer) {
	l.SetOutput(out)

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		l.SetLevel(logrus.InfoLevel)
		l.Warnf("Invalid log level '%s', defaulting to 'info'", level)
	} else {
		l.SetLevel(parsed)
	}

	switch strings.ToLower(environment) {
	case "production", "staging":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}

// Component returns an entry tagged with the service and component names.
func Component(name string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{"service": serviceName, "component": name})
}
