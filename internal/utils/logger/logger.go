// internal/utils/logger/logger.go
package logger

import (
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zap.Logger with the context helpers of pool commands.
type Logger struct {
	*zap.Logger
}

// New builds a logger writing human readable lines to stdout and JSON lines
// to a rotating file. An empty LogFile disables the file sink.
func New(cfg *Config) (*Logger, error) {
	return newWithConsole(cfg, os.Stdout)
}

func newWithConsole(cfg *Config, console io.Writer) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Development {
		level.SetLevel(zapcore.DebugLevel)
	}

	cores := []zapcore.Core{consoleCore(console, cfg.Development, level)}
	if cfg.LogFile != "" {
		cores = append(cores, fileCore(cfg, level))
	}

	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...),
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		),
	}, nil
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	return ec
}

func consoleCore(w io.Writer, development bool, level zapcore.LevelEnabler) zapcore.Core {
	ec := encoderConfig()
	if development {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		ec.CallerKey = zapcore.OmitKey
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(w), level)
}

// fileCore always writes JSON so the file can be shipped as is.
func fileCore(cfg *Config, level zapcore.LevelEnabler) zapcore.Core {
	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(rotator), level)
}

// WithOperation tags lines of one command with a correlation id.
func (l *Logger) WithOperation(operation string) *zap.Logger {
	return l.With(
		zap.String("operation", operation),
		zap.String("correlation_id", uuid.New().String()),
	)
}

func (l *Logger) WithPool(pool solana.PublicKey) *zap.Logger {
	return l.With(zap.Stringer("pool", pool))
}

func (l *Logger) WithSignature(sig solana.Signature) *zap.Logger {
	return l.With(zap.Stringer("signature", sig))
}

// Sync flushes both sinks. Terminals reject fsync, those errors are dropped.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

// TrackOperation logs the start of operation. The returned func logs its
// duration, at warn level with the error when err is non nil.
func (l *Logger) TrackOperation(operation string) (done func(err error)) {
	start := time.Now()
	opLogger := l.WithOperation(operation)
	opLogger.Debug("Starting operation")

	return func(err error) {
		duration := time.Since(start)
		fields := []zap.Field{
			zap.Duration("duration", duration),
			zap.Float64("duration_ms", float64(duration.Microseconds())/1000),
		}
		if err != nil {
			opLogger.Warn("Operation failed", append(fields, zap.Error(err))...)
			return
		}
		opLogger.Debug("Operation completed", fields...)
	}
}
