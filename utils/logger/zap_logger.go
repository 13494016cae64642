package logger

import (
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// ZapLogger forwards lines to a zap logger at info level.
type ZapLogger struct {
	logger *zap.Logger
}

var _ Logger = (*ZapLogger)(nil)

// NewZapLogger wraps l. A nil logger falls back to zap.NewNop.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{logger: l}
}

// NewProductionZapLogger builds a JSON logger writing to stderr
func NewProductionZapLogger() (*ZapLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return NewZapLogger(l), nil
}

// Zap exposes the wrapped logger for structured fields
func (z *ZapLogger) Zap() *zap.Logger {
	return z.logger
}

func (z *ZapLogger) Type() LoggerType {
	return LoggerTypeZap
}

func (z *ZapLogger) Printf(format string, args ...any) {
	z.logger.Info(fmt.Sprintf(format, args...))
}

func (z *ZapLogger) Println(message string) {
	z.logger.Info(message)
}

// Close flushes buffered entries
func (z *ZapLogger) Close() error {
	err := z.logger.Sync()
	// Syncing a terminal's stderr fails on some platforms
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
