// Package logging bridges the process-wide zap logger into the Temporal
// SDK's logger interface so client, worker and workflow logs share one sink.
package logging

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

type temporalLogger struct {
	sugar *zap.SugaredLogger
}

// NewTemporal wraps a zap logger as a Temporal log.Logger.
func NewTemporal(base *zap.Logger) log.Logger {
	return &temporalLogger{
		sugar: base.WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

func (l *temporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.sugar.Debugw(msg, keyvals...)
}

func (l *temporalLogger) Info(msg string, keyvals ...interface{}) {
	l.sugar.Infow(msg, keyvals...)
}

func (l *temporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.sugar.Warnw(msg, keyvals...)
}

func (l *temporalLogger) Error(msg string, keyvals ...interface{}) {
	l.sugar.Errorw(msg, keyvals...)
}
