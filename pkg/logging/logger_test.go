package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "debug level", level: "debug"},
		{name: "info level", level: "info"},
		{name: "warn level", level: "warn"},
		{name: "error level", level: "error"},
		{name: "unknown level defaults to info", level: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = logrus.New()
			err := Init(tt.level, "")
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInit_WithLogFile(t *testing.T) {
	Logger = logrus.New()
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "subdir", "faceprint.log")

	err := Init("info", logFile)
	if err != nil {
		t.Fatalf("Init with log file failed: %v", err)
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestSetLevel(t *testing.T) {
	Logger = logrus.New()

	tests := []struct {
		level    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"bogus", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			SetLevel(tt.level)
			if Logger.GetLevel() != tt.expected {
				t.Errorf("expected level %v, got %v", tt.expected, Logger.GetLevel())
			}
		})
	}
}

func TestComponent(t *testing.T) {
	Logger = logrus.New()
	var buf bytes.Buffer
	Logger.SetOutput(&buf)
	Logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	Component("matcher").Info("hello")

	out := buf.String()
	if !strings.Contains(out, "component=matcher") {
		t.Errorf("expected component field in output, got: %s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected message in output, got: %s", out)
	}
}

func TestWithFields(t *testing.T) {
	Logger = logrus.New()
	var buf bytes.Buffer
	Logger.SetOutput(&buf)
	Logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	WithFields(Fields{"subject": "alice", "distance": 0.12}).Info("matched")

	out := buf.String()
	if !strings.Contains(out, "subject=alice") {
		t.Errorf("expected subject field in output, got: %s", out)
	}
}
