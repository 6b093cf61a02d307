package utils

import (
	"testing"
	"time"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + 1*time.Minute, "2h 1m 0s"},
		{49*time.Hour + 30*time.Second, "2d 1h 0m 30s"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.d); got != tt.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestHealthTracker(t *testing.T) {
	h := NewHealthTracker()
	if h.GetHealth().Status != "STARTING" {
		t.Errorf("Expected STARTING, got %s", h.GetHealth().Status)
	}

	h.SetHealthStatus("OK", "Service is running normally")
	health := h.GetHealth()
	if health.Status != "OK" || health.Message != "Service is running normally" {
		t.Errorf("Unexpected health: %+v", health)
	}
}

func TestGetVersion(t *testing.T) {
	SetVersion("1.2.3", "dev", "abcdef1234567", "2026-01-01", "hash", "linux/arm64")
	v := GetVersion()

	if v.Tag != "1.2.3" {
		t.Errorf("Expected tag 1.2.3, got %s", v.Tag)
	}
	if v.Obj.Commit != "abcdef1" {
		t.Errorf("Expected short commit, got %s", v.Obj.Commit)
	}
	if v.Str != "1.2.3-dev+abcdef1.2026-01-01.linux/arm64.hash" {
		t.Errorf("Unexpected version string %s", v.Str)
	}
}
