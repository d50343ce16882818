package config

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load(testLogger())

	if cfg.Sink != "http" {
		t.Errorf("Sink = %q, want http", cfg.Sink)
	}
	if cfg.WakePhrase != "jarvis" {
		t.Errorf("WakePhrase = %q", cfg.WakePhrase)
	}
	if cfg.RMSThreshold != 900 {
		t.Errorf("RMSThreshold = %v, want 900", cfg.RMSThreshold)
	}
	if cfg.SilenceDuration != 1500*time.Millisecond {
		t.Errorf("SilenceDuration = %v, want 1.5s", cfg.SilenceDuration)
	}
	if cfg.MaxWait != 4*time.Second {
		t.Errorf("MaxWait = %v, want 4s", cfg.MaxWait)
	}
	if cfg.MaxUtterance != 15*time.Second {
		t.Errorf("MaxUtterance = %v, want 15s", cfg.MaxUtterance)
	}
	if !cfg.SessionReuse {
		t.Error("SessionReuse should default on")
	}
	if cfg.Retries != 2 || cfg.RetryBackoff != 250*time.Millisecond {
		t.Errorf("retry defaults = %d/%v", cfg.Retries, cfg.RetryBackoff)
	}
	if cfg.WakeCooldown != time.Second {
		t.Errorf("WakeCooldown = %v, want 1s", cfg.WakeCooldown)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JARVIS_SINK", "ws")
	t.Setenv("JARVIS_WAKE_PHRASE", "computer")
	t.Setenv("JARVIS_RMS_THRESHOLD", "1200")
	t.Setenv("JARVIS_SILENCE_SECONDS", "0.8")
	t.Setenv("JARVIS_SESSION_REUSE", "false")
	t.Setenv("JARVIS_RETRIES", "5")

	cfg := Load(testLogger())
	if cfg.Sink != "ws" {
		t.Errorf("Sink = %q", cfg.Sink)
	}
	if cfg.WakePhrase != "computer" {
		t.Errorf("WakePhrase = %q", cfg.WakePhrase)
	}
	if cfg.RMSThreshold != 1200 {
		t.Errorf("RMSThreshold = %v", cfg.RMSThreshold)
	}
	if cfg.SilenceDuration != 800*time.Millisecond {
		t.Errorf("SilenceDuration = %v", cfg.SilenceDuration)
	}
	if cfg.SessionReuse {
		t.Error("SessionReuse should be off")
	}
	if cfg.Retries != 5 {
		t.Errorf("Retries = %d", cfg.Retries)
	}
}

func TestLoad_InvalidFallsBack(t *testing.T) {
	t.Setenv("JARVIS_RMS_THRESHOLD", "loud")
	t.Setenv("JARVIS_RETRIES", "many")
	t.Setenv("JARVIS_SESSION_REUSE", "yep")

	cfg := Load(testLogger())
	if cfg.RMSThreshold != 900 {
		t.Errorf("RMSThreshold = %v, want default 900", cfg.RMSThreshold)
	}
	if cfg.Retries != 2 {
		t.Errorf("Retries = %d, want default 2", cfg.Retries)
	}
	if !cfg.SessionReuse {
		t.Error("SessionReuse should fall back to true")
	}
}
