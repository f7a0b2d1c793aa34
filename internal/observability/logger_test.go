package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env    string
		expect zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"INFO", zap.InfoLevel},
		{"DEBUG", zap.DebugLevel},
		{"WARN", zap.WarnLevel},
		{"warning", zap.WarnLevel},
		{"ERROR", zap.ErrorLevel},
		{"debug", zap.DebugLevel},
		{"  warn  ", zap.WarnLevel},
		{"invalid", zap.InfoLevel},
	}
	for _, tt := range tests {
		level := parseLogLevel(tt.env)
		if got := level.Level(); got != tt.expect {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.env, got, tt.expect)
		}
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"", "console"} {
		t.Setenv("LOG_FORMAT", format)
		logger, err := NewLogger()
		if err != nil {
			t.Fatalf("NewLogger() LOG_FORMAT=%q error = %v", format, err)
		}
		logger.Info("test message")
		if err := FlushTelemetry(context.Background(), logger); err != nil {
			t.Errorf("FlushTelemetry() error = %v", err)
		}
	}
}

func TestFlushTelemetry_NilLogger(t *testing.T) {
	if err := FlushTelemetry(context.Background(), nil); err != nil {
		t.Errorf("FlushTelemetry(nil) error = %v", err)
	}
}

func TestIsUnsyncable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}, true},
		{fmt.Errorf("wrapped: %w", syscall.ENOTTY), true},
		{errors.New("disk full"), false},
	}
	for _, tt := range tests {
		if got := isUnsyncable(tt.err); got != tt.want {
			t.Errorf("isUnsyncable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
