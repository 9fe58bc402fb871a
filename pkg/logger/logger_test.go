package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestInitLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			Init(&Config{Level: tt.level, Format: "json"})
			if !slog.Default().Enabled(context.Background(), tt.want) {
				t.Errorf("level %s should be enabled for config %q", tt.want, tt.level)
			}
			if tt.want > slog.LevelDebug && slog.Default().Enabled(context.Background(), tt.want-4) {
				t.Errorf("level below %s should be disabled for config %q", tt.want, tt.level)
			}
		})
	}
}

func TestWithContextFields(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	defer slog.SetDefault(old)
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")
	ctx = WithEvent(ctx, "patients/p1/documents/current_labs/g1/labs.pdf")
	ctx = WithPatient(ctx, "p1")

	Info(ctx, "processing event")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output not JSON: %v", err)
	}
	if entry["request_id"] != "req-123" {
		t.Errorf("expected request_id, got %v", entry["request_id"])
	}
	if entry["patient_id"] != "p1" {
		t.Errorf("expected patient_id, got %v", entry["patient_id"])
	}
	if !strings.Contains(entry["object_key"].(string), "labs.pdf") {
		t.Errorf("expected object_key, got %v", entry["object_key"])
	}
}

func TestWithContextEmptyValues(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	defer slog.SetDefault(old)
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	Warn(context.Background(), "no context values")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output not JSON: %v", err)
	}
	if _, present := entry["request_id"]; present {
		t.Error("request_id should not be logged when absent from context")
	}
	if _, present := entry["patient_id"]; present {
		t.Error("patient_id should not be logged when absent from context")
	}
}
