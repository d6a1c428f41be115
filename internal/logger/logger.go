package logger

import (
	"io"
	"os"
	"strings"

	"github.com/samvad-hq/apireq/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface shared across packages.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (*NopLogger) InfoObj(string, string, interface{})  {}
func (*NopLogger) DebugObj(string, string, interface{}) {}
func (*NopLogger) WarnObj(string, string, interface{})  {}
func (*NopLogger) ErrorObj(string, string, interface{}) {}

// ZapLogger logs each object as a single structured field named key.
type ZapLogger struct {
	l *zap.Logger
}

func (z *ZapLogger) InfoObj(msg, key string, obj interface{})  { z.l.Info(msg, zap.Any(key, obj)) }
func (z *ZapLogger) DebugObj(msg, key string, obj interface{}) { z.l.Debug(msg, zap.Any(key, obj)) }
func (z *ZapLogger) WarnObj(msg, key string, obj interface{})  { z.l.Warn(msg, zap.Any(key, obj)) }
func (z *ZapLogger) ErrorObj(msg, key string, obj interface{}) { z.l.Error(msg, zap.Any(key, obj)) }

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error { return z.l.Sync() }

// Package-level logger to be used across packages after Init.
var S *zap.SugaredLogger

// Init initializes the logger using settings from config. Logs go to stderr
// so stdout stays free for command output.
func Init(cfg *config.Config) (*ZapLogger, error) {
	return New(cfg.LogLevel, os.Stderr), nil
}

// New builds a JSON zap logger at the named level writing to w.
func New(levelName string, w io.Writer) *ZapLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		parseLevel(levelName),
	)

	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	S = l.Sugar()
	return &ZapLogger{l: l}
}

func parseLevel(name string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Close flushes any buffered loggers.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

// Package-level helpers log through S and are no-ops before New or Init.

func InfoObj(msg, key string, obj interface{}) {
	if S != nil {
		S.Desugar().Info(msg, zap.Any(key, obj))
	}
}

func DebugObj(msg, key string, obj interface{}) {
	if S != nil {
		S.Desugar().Debug(msg, zap.Any(key, obj))
	}
}

func ErrorObj(msg, key string, obj interface{}) {
	if S != nil {
		S.Desugar().Error(msg, zap.Any(key, obj))
	}
}
