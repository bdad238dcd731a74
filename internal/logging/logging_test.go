package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"  warn  ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupHonorsLevel(t *testing.T) {
	logger := Setup("error")
	ctx := context.Background()
	if logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("an error-level logger should not emit info records")
	}
	if !logger.Enabled(ctx, slog.LevelError) {
		t.Error("an error-level logger should emit error records")
	}
}
