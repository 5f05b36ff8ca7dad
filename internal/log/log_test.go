package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		logFn   func(Logger)
		want    []string
		notWant []string
	}{
		{
			name:  "text format includes message and attrs",
			cfg:   Config{Level: slog.LevelInfo},
			logFn: func(l Logger) { l.Info("chunk stored", "key", "faq.md#0") },
			want:  []string{"chunk stored", "key=faq.md#0"},
		},
		{
			name:  "json format",
			cfg:   Config{Level: slog.LevelInfo, JSON: true},
			logFn: func(l Logger) { l.Info("serving") },
			want:  []string{`"msg":"serving"`},
		},
		{
			name:    "debug suppressed at info level",
			cfg:     Config{Level: slog.LevelInfo},
			logFn:   func(l Logger) { l.Debug("noise") },
			notWant: []string{"noise"},
		},
		{
			name:  "debug visible at debug level",
			cfg:   Config{Level: slog.LevelDebug},
			logFn: func(l Logger) { l.Debug("trace detail") },
			want:  []string{"trace detail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, tt.cfg)
			tt.logFn(logger)

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("output %q should not contain %q", out, nw)
				}
			}
		})
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	if logger == nil {
		t.Fatal("NewNop returned nil")
	}
	// Must not panic at any level.
	logger.Debug("a")
	logger.Info("b")
	logger.Error("c")
}
