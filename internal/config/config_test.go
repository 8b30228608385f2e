package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadParsesQuizSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "quiz:\n  duration: 10m\n  warningDelay: 3s\n  passMark: 80\nbank:\n  default: js\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := TTLDuration(cfg.Quiz.Duration, time.Minute); got != 10*time.Minute {
		t.Fatalf("expected 10m duration, got %v", got)
	}
	if got := TTLDuration(cfg.Quiz.WarningDelay, 0); got != 3*time.Second {
		t.Fatalf("expected 3s warning delay, got %v", got)
	}
	if cfg.Quiz.PassMark != 80 || cfg.Bank.Default != "js" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected missing file to be tolerated, got %v", err)
	}
	if got := TTLDuration(cfg.Quiz.Duration, 30*time.Minute); got != 30*time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Second); got != time.Second {
		t.Fatalf("expected fallback for invalid duration, got %v", got)
	}
	if StringOr("", "x") != "x" || StringOr("y", "x") != "y" {
		t.Fatalf("StringOr mismatch")
	}
}
