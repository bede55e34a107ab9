package telemetry

import (
	"log"

	"go.uber.org/zap"
)

// Logger exposes the logging capabilities required by server components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

func (l *loggerAdapter) StandardLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.logger
}

// WrapZap adapts a zap logger to the Logger interface. Messages are written at
// info level through the sugared logger.
func WrapZap(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapAdapter{base: logger, sugar: logger.Sugar()}
}

type zapAdapter struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

func (z *zapAdapter) Printf(format string, args ...any) {
	z.sugar.Infof(format, args...)
}

// StandardLogger exposes a *log.Logger that writes through zap at warn level,
// used as the fallback for the event router.
func (z *zapAdapter) StandardLogger() *log.Logger {
	std, err := zap.NewStdLogAt(z.base, zap.WarnLevel)
	if err != nil {
		return zap.NewStdLog(z.base)
	}
	return std
}

// StandardLogger returns the *log.Logger behind logger when it exposes one.
func StandardLogger(logger Logger) *log.Logger {
	if provider, ok := logger.(interface{ StandardLogger() *log.Logger }); ok {
		return provider.StandardLogger()
	}
	return nil
}
