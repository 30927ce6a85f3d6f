package kernel

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", path, err)
		}
		if cfg.TickMS != 10 || cfg.InboxSlots != 8 || cfg.EventBuffer != 256 {
			t.Errorf("Load(%q) = %+v, want defaults", path, cfg)
		}
		if len(cfg.Tasks) != 2 {
			t.Errorf("Load(%q) tasks = %d, want 2", path, len(cfg.Tasks))
		}
	}
}

func TestLoadOverridesAndClamps(t *testing.T) {
	path := writeConfig(t, `
tick_ms: -3
ticks: 20
inbox_slots: 0
log:
  level: debug
  format: json
tasks:
  - id: 7
    entry: 4096
    runnable: true
    step: 2
  - id: 9
    entry: 8192
keyboard:
  - tick: 3
    code: 65
faults:
  - tick: 5
    cause: page-fault
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TickMS != 10 {
		t.Errorf("TickMS = %d, want clamped 10", cfg.TickMS)
	}
	if cfg.InboxSlots != 8 {
		t.Errorf("InboxSlots = %d, want clamped 8", cfg.InboxSlots)
	}
	if cfg.Ticks != 20 || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Tasks) != 2 {
		t.Fatalf("tasks = %+v, want 2 entries", cfg.Tasks)
	}
	if cfg.Tasks[0] != (TaskConfig{ID: 7, Entry: 4096, Runnable: true, Step: 2}) {
		t.Errorf("tasks[0] = %+v", cfg.Tasks[0])
	}
	if cfg.Tasks[1].Runnable {
		t.Errorf("tasks[1].Runnable = true, want false")
	}
	if len(cfg.Keyboard) != 1 || cfg.Keyboard[0] != (KeyEvent{Tick: 3, Code: 65}) {
		t.Errorf("keyboard = %+v", cfg.Keyboard)
	}
	if len(cfg.Faults) != 1 || cfg.Faults[0].Cause != "page-fault" {
		t.Errorf("faults = %+v", cfg.Faults)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "tick_ms: [1, 2\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil for malformed yaml")
	}
}
