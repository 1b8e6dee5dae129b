// Package logging configures the process-wide logrus logger.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Configure sets level and formatter on the standard logrus logger and returns it.
// Unknown levels fall back to info.
func Configure(level, format string) *logrus.Logger {
	l := logrus.StandardLogger()
	l.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// OrStandard returns log, or the standard logger when log is nil.
func OrStandard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}
