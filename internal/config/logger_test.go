package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestSetupLogger_LevelMapping(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase", "DEBUG", slog.LevelDebug},
		{"invalid defaults to info", "loud", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := SetupLogger(&LogConfig{Level: tt.level, Format: "text"})
			if err != nil {
				t.Fatalf("SetupLogger error: %v", err)
			}
			defer log.Close()

			if !log.Enabled(context.Background(), tt.wantLevel) {
				t.Errorf("level %v should be enabled", tt.wantLevel)
			}
			if tt.wantLevel > slog.LevelDebug && log.Enabled(context.Background(), tt.wantLevel-1) {
				t.Errorf("level %v should be disabled", tt.wantLevel-1)
			}
		})
	}
}

func TestSetupLogger_NilConfig(t *testing.T) {
	if _, err := SetupLogger(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestSetupLogger_WithFile(t *testing.T) {
	log, err := SetupLogger(&LogConfig{
		Level:           "info",
		Format:          "json",
		Color:           boolPtr(false),
		FilePath:        filepath.Join(t.TempDir(), "jetadmin.log"),
		MaxSizeMB:       5,
		RetentionDays:   3,
		MaxBackups:      2,
		CompressRotated: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("SetupLogger error: %v", err)
	}
	defer log.Close()
	log.Info("hello")
}

func TestSetupLogger_SetsDefault(t *testing.T) {
	log, err := SetupLogger(&LogConfig{Level: "warn", Format: "custom"})
	if err != nil {
		t.Fatalf("SetupLogger error: %v", err)
	}
	defer log.Close()

	if slog.Default().Handler() != log.Handler() {
		t.Error("SetupLogger did not install the default logger")
	}
}

func TestLoggerOptions_FileOptionsOnlyWithPath(t *testing.T) {
	base := loggerOptions(&LogConfig{Level: "info", Format: "text", MaxSizeMB: 10})
	withFile := loggerOptions(&LogConfig{Level: "info", Format: "text", MaxSizeMB: 10, FilePath: "x.log"})

	if len(base) != 4 {
		t.Errorf("console-only options = %d; want 4", len(base))
	}
	if len(withFile) != 7 {
		t.Errorf("file options = %d; want 7", len(withFile))
	}
}
