package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level    string
		debugOn  bool
		expected zapcore.Level
	}{
		{"debug", true, zapcore.DebugLevel},
		{"warn", false, zapcore.WarnLevel},
		{"nonsense", false, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New("test", tt.level)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := l.Core().Enabled(zapcore.DebugLevel); got != tt.debugOn {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugOn)
			}
			if !l.Core().Enabled(tt.expected) {
				t.Errorf("expected level %s to be enabled", tt.expected)
			}
		})
	}
}
