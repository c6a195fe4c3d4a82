// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package log provides the logging surface used throughout swarm.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Default is the package-level logger. The default level is info and the
// default sink is stderr, since stdout is reserved for the one-line-per-
// active-connection result stream. Replace it with any value satisfying
// Logger, for example during tests.
var Default Logger = newLogger(zapcore.InfoLevel)

func newLogger(level zapcore.Level) Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	NameKey:        "name",
	CallerKey:      "caller",
	MessageKey:     "message",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// Logger is the interface swarm logs through, so that callers embedding
// swarm as a library can swap in their own sink.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	// Fatal and Fatalf terminate the process after logging. The core calls
	// these for syscall failures it does not recover from (an unclassified
	// errno in the drain helpers, a connect error other than "in
	// progress", a failed poller, shutdown or close call), since limping
	// on would silently skew latency measurements.
	Fatal(args ...any)
	Fatalf(format string, args ...any)
}

// Debug logs at debug level.
func Debug(args ...any) { Default.Debug(args...) }

// Debugf logs at debug level with format.
func Debugf(format string, args ...any) { Default.Debugf(format, args...) }

// Info logs at info level.
func Info(args ...any) { Default.Info(args...) }

// Infof logs at info level with format.
func Infof(format string, args ...any) { Default.Infof(format, args...) }

// Warn logs at warn level.
func Warn(args ...any) { Default.Warn(args...) }

// Warnf logs at warn level with format.
func Warnf(format string, args ...any) { Default.Warnf(format, args...) }

// Error logs at error level.
func Error(args ...any) { Default.Error(args...) }

// Errorf logs at error level with format.
func Errorf(format string, args ...any) { Default.Errorf(format, args...) }

// Fatal logs then terminates the process.
func Fatal(args ...any) { Default.Fatal(args...) }

// Fatalf logs then terminates the process.
func Fatalf(format string, args ...any) { Default.Fatalf(format, args...) }

// SetLevel replaces the default logger with one at the given level. The
// --debug CLI flag uses this to enable Debug-level state-transition
// tracing.
func SetLevel(level zapcore.Level) {
	Default = newLogger(level)
}
