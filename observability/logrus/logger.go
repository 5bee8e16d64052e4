// Package logrus adapts a logrus logger to core.Logger.
package logrus

import (
	"github.com/Swind/go-task-executor/core"
	lr "github.com/sirupsen/logrus"
)

// Logger forwards pool events to a logrus.FieldLogger.
type Logger struct {
	fl lr.FieldLogger
}

var _ core.Logger = (*Logger)(nil)

// New wraps fl. A nil fl uses logrus.StandardLogger().
func New(fl lr.FieldLogger) *Logger {
	if fl == nil {
		fl = lr.StandardLogger()
	}
	return &Logger{fl: fl}
}

func (l *Logger) Debug(msg string, fields ...core.Field) { l.entry(fields).Debug(msg) }
func (l *Logger) Info(msg string, fields ...core.Field)  { l.entry(fields).Info(msg) }
func (l *Logger) Warn(msg string, fields ...core.Field)  { l.entry(fields).Warn(msg) }
func (l *Logger) Error(msg string, fields ...core.Field) { l.entry(fields).Error(msg) }

func (l *Logger) entry(fields []core.Field) lr.FieldLogger {
	if len(fields) == 0 {
		return l.fl
	}
	m := make(lr.Fields, len(fields))
	for _, f := range fields {
		// byte slices such as stacks are logged as text
		if b, ok := f.Value.([]byte); ok {
			m[f.Key] = string(b)
			continue
		}
		m[f.Key] = f.Value
	}
	return l.fl.WithFields(m)
}
