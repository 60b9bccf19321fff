// Package fansiconfig holds process-wide mutable configuration: timeouts,
// per-engine enforced connection-string keywords, and the diagnostic
// logging hook used by the connection pool. Errors that are
// swallowed during pool-eviction or shutdown are logged here if a logger
// is configured.
package fansiconfig

import "go.uber.org/zap"

// Logger is the minimal surface the connection pool needs for
// best-effort diagnostics. Supplying nil disables logging entirely.
type Logger interface {
	Printf(format string, args ...any)
}

// ZapLogger adapts a *zap.SugaredLogger to Logger.
type ZapLogger struct {
	S *zap.SugaredLogger
}

func (z ZapLogger) Printf(format string, args ...any) {
	if z.S == nil {
		return
	}
	z.S.Infof(format, args...)
}

// NewDefaultLogger builds a production zap logger wrapped as a Logger.
// Callers that don't want logging at all should pass nil wherever a
// Logger is accepted instead of calling this.
func NewDefaultLogger() (Logger, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return ZapLogger{S: zl.Sugar()}, nil
}

// LogOrDiscard calls l.Printf if l is non-nil; otherwise it is a no-op.
// Every caller in this module that wants to "swallow but log if configured"
// goes through this helper so the swallow behavior is consistent.
func LogOrDiscard(l Logger, format string, args ...any) {
	if l == nil {
		return
	}
	l.Printf(format, args...)
}
