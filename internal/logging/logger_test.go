package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := logger
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestLogLine(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	LogLine("/dev/ttyUSB0", "tx", ":0102\r\n")

	entries := logs.FilterMessage("Gateway line").All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["line"] != ":0102" {
		t.Errorf("line = %q, want terminator trimmed", fields["line"])
	}
	if fields["gateway"] != "/dev/ttyUSB0" || fields["direction"] != "tx" {
		t.Errorf("fields = %v", fields)
	}
}

func TestLevels(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Debug("hidden")
	Info("shown")
	Warn("warned")
	Error("failed")

	if n := logs.FilterMessage("hidden").Len(); n != 0 {
		t.Errorf("debug entry logged at info level")
	}
	for _, tt := range []struct {
		msg   string
		level zapcore.Level
	}{
		{"shown", zapcore.InfoLevel},
		{"warned", zapcore.WarnLevel},
		{"failed", zapcore.ErrorLevel},
	} {
		entries := logs.FilterMessage(tt.msg).All()
		if len(entries) != 1 || entries[0].Level != tt.level {
			t.Errorf("%q entries = %v, want one at %s", tt.msg, entries, tt.level)
		}
	}
}

func TestInitialize(t *testing.T) {
	prev := logger
	t.Cleanup(func() { logger = prev })

	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize(\"\") error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger enabled without a level")
	}

	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if err := Initialize(tt.level); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}
			core := GetLogger().Core()
			if !core.Enabled(tt.want) {
				t.Errorf("%s not enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && core.Enabled(tt.want-1) {
				t.Errorf("%s enabled", tt.want-1)
			}
		})
	}

	t.Setenv(LogLevelEnvVar, "warn")
	if err := Initialize(""); err != nil {
		t.Fatal(err)
	}
	if core := GetLogger().Core(); !core.Enabled(zapcore.WarnLevel) || core.Enabled(zapcore.InfoLevel) {
		t.Errorf("level from %s not applied", LogLevelEnvVar)
	}
}
