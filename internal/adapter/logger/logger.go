package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type jsonLogger struct {
	entry *logrus.Entry
}

// New returns a JSON logger writing to stdout at debug level.
func New(service string) Logger {
	return NewWithOutput(service, os.Stdout, "debug")
}

// NewWithOutput returns a JSON logger writing to w. Unknown levels fall back to info.
func NewWithOutput(service string, w io.Writer, level string) Logger {
	hostname, _ := os.Hostname()

	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return &jsonLogger{
		entry: l.WithFields(logrus.Fields{
			"service":  service,
			"hostname": hostname,
		}),
	}
}

// Nop discards everything.
func Nop() Logger {
	return NewWithOutput("nop", io.Discard, "panic")
}

func (l *jsonLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.with(action, requestID, details, nil).Info(message)
}

func (l *jsonLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.with(action, requestID, details, nil).Debug(message)
}

func (l *jsonLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.with(action, requestID, details, err).Error(message)
}

func (l *jsonLogger) with(action, requestID string, details map[string]interface{}, err error) *logrus.Entry {
	fields := logrus.Fields{
		"action":     action,
		"request_id": requestID,
	}
	if len(details) > 0 {
		fields["details"] = details
	}
	if err != nil {
		fields["error"] = newErrorInfo(err)
	}
	return l.entry.WithFields(fields)
}
