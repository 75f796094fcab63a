// Package logging is the internal diagnostics channel. Failures that must
// never surface on the user's event stream (skipped retention deletes,
// degraded opens) are reported here instead.
package logging

import "go.uber.org/zap"

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Nop discards all diagnostics. It is the default.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

// Zap adapts a zap.SugaredLogger to the Logger interface.
type Zap struct {
	S *zap.SugaredLogger
}

func (z Zap) Debug(msg string, args ...any) { z.S.Debugf(msg, args...) }
func (z Zap) Info(msg string, args ...any)  { z.S.Infof(msg, args...) }
func (z Zap) Warn(msg string, args ...any)  { z.S.Warnf(msg, args...) }
func (z Zap) Error(msg string, args ...any) { z.S.Errorf(msg, args...) }
