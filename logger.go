package clob

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger the way MuhammadChandra19-exchange's pkg/logger
// does, trimmed to the fields the Engine actually emits. Error logs unwrap
// a github.com/pkg/errors stack trace when one is attached, matching that
// same pairing.
type Logger struct {
	z *zap.Logger
}

func newLogger(level string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.MessageKey = "message"
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.z.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.z.Warn(msg, fields...)
}

// Error logs err, promoting a pkg/errors stack trace into the log record
// when the error carries one.
func (l *Logger) Error(err error, fields ...zap.Field) {
	type stackTracer interface {
		StackTrace() pkgerrors.StackTrace
	}
	if st, ok := err.(stackTracer); ok {
		fields = append(fields, zap.String("stacktrace", fmt.Sprintf("%+v", st.StackTrace())))
	}
	l.z.Error(err.Error(), fields...)
}

func (l *Logger) Sync() error {
	return l.z.Sync()
}
