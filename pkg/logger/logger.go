package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// AppName is attached to every entry as the "app" field.
const AppName = "support-query"

var isTerminal = term.IsTerminal

// Log is a no-op logger until Init is called, so packages can log from tests.
var Log = zap.NewNop()

// Init replaces Log. outputPath is "stdout", "stderr" (the default when empty) or a
// file that is appended to.
func Init(level, format, outputPath string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	sink, color, err := openSink(outputPath)
	if err != nil {
		return err
	}

	core := zapcore.NewCore(newEncoder(format, color), sink, zapLevel)
	Log = zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("app", AppName)),
	)
	return nil
}

func newEncoder(format string, color bool) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format == "json" {
		return zapcore.NewJSONEncoder(cfg)
	}
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// openSink keeps stdout free by default: the CLI prints its answer there.
// The bool reports whether the sink is a terminal, where colored levels are wanted.
func openSink(outputPath string) (zapcore.WriteSyncer, bool, error) {
	switch outputPath {
	case "stdout":
		return zapcore.Lock(os.Stdout), isTerminal(int(os.Stdout.Fd())), nil
	case "", "stderr":
		return zapcore.Lock(os.Stderr), isTerminal(int(os.Stderr.Fd())), nil
	}

	file, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open log file: %w", err)
	}
	return zapcore.AddSync(file), true, nil
}

func GetLogger() *zap.Logger {
	return Log
}

func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync() {
	_ = Log.Sync()
}
