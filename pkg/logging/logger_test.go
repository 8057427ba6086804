package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger_CreatesDirAndLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, closeLog, err := NewLogger(Options{Dir: dir})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log dir missing: %v", err)
	}

	log.Info("test_message_from_logging_test")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"test_message_from_logging_test"`) {
		t.Errorf("log file missing message, got: %s", data)
	}
}

func TestNewLogger_CloseReleasesFile(t *testing.T) {
	dir := t.TempDir()
	log, closeLog, err := NewLogger(Options{Dir: dir})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("before close")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := closeLog(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, FileName)); err != nil {
		t.Errorf("log file still held: %v", err)
	}
}

func TestNewLogger_Level(t *testing.T) {
	dir := t.TempDir()
	log, closeLog, err := NewLogger(Options{Dir: dir, Level: "warn"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	log.Info("dropped")
	log.Warn("kept")
	_ = closeLog()

	data, _ := os.ReadFile(filepath.Join(dir, FileName))
	if strings.Contains(string(data), "dropped") {
		t.Errorf("info entry written at warn level: %s", data)
	}
	if !strings.Contains(string(data), "kept") {
		t.Errorf("warn entry missing: %s", data)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, _, err := NewLogger(Options{Level: "loud"}); err == nil {
		t.Error("NewLogger with invalid level should fail")
	}
}

func TestNewLogger_ConsoleLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		wantWarn bool
		wantInfo bool
	}{
		{"default shows warnings only", "", true, false},
		{"debug still hides info on console", "debug", true, false},
		{"error hides warnings", "error", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log, closeLog, err := NewLogger(Options{Level: tt.level, Console: &buf})
			if err != nil {
				t.Fatalf("NewLogger: %v", err)
			}
			defer func() { _ = closeLog() }()

			log.Info("quiet")
			log.Warn("theme did not settle", zap.String("label", "home-mobile-dark"))
			log.Error("combination failed")

			out := buf.String()
			if got := strings.Contains(out, "quiet"); got != tt.wantInfo {
				t.Errorf("info shown = %v, want %v: %q", got, tt.wantInfo, out)
			}
			if got := strings.Contains(out, "home-mobile-dark"); got != tt.wantWarn {
				t.Errorf("warning shown = %v, want %v: %q", got, tt.wantWarn, out)
			}
			if !strings.Contains(out, "ERROR") {
				t.Errorf("error entry missing: %q", out)
			}
		})
	}
}

func TestNewLogger_Nop(t *testing.T) {
	log, closeLog, err := NewLogger(Options{})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Error("goes nowhere")
	if err := closeLog(); err != nil {
		t.Errorf("close: %v", err)
	}
}
