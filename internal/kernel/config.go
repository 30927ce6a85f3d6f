package kernel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	yaml "github.com/goccy/go-yaml"

	"ticksched/internal/ipc"
)

// Config mirrors config.yml.
type Config struct {
	TickMS      int          `yaml:"tick_ms"`      // 10 (by default)
	Ticks       int          `yaml:"ticks"`        // 0 runs until cancelled
	InboxSlots  int          `yaml:"inbox_slots"`  // 8 (by default)
	EventBuffer int          `yaml:"event_buffer"` // 256 (by default)
	TraceCSV    string       `yaml:"trace_csv"`
	Log         LogConfig    `yaml:"log"`
	Tasks       []TaskConfig `yaml:"tasks"`
	Keyboard    []KeyEvent   `yaml:"keyboard"`
	Faults      []FaultEvent `yaml:"faults"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TaskConfig describes one task created at boot.
type TaskConfig struct {
	ID       uint16 `yaml:"id"`
	Entry    uint32 `yaml:"entry"`
	Runnable bool   `yaml:"runnable"`
	Step     uint32 `yaml:"step"` // bytes of code run per tick
}

// KeyEvent presses a scan code just before the given timer tick.
type KeyEvent struct {
	Tick int   `yaml:"tick"`
	Code uint8 `yaml:"code"`
}

// FaultEvent raises a CPU exception just before the given timer tick.
type FaultEvent struct {
	Tick  int    `yaml:"tick"`
	Cause string `yaml:"cause"`
}

// defaultConfig is what Load returns for an empty path or a missing file,
// and what every field absent from the YAML keeps.
func defaultConfig() Config {
	return Config{
		TickMS:      10,
		InboxSlots:  ipc.DefaultInboxSlots,
		EventBuffer: 256,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tasks: defaultTasks(),
	}
}

func defaultTasks() []TaskConfig {
	return []TaskConfig{
		{ID: 1, Entry: 0x00101000, Runnable: true, Step: 4},
		{ID: uint16(ipc.TTY), Entry: 0x00102000, Runnable: true, Step: 4},
	}
}

// Load reads YAML and overrides defaults; an empty path or a missing file
// means defaults only.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	cfg.Tasks = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	// sanity clamps
	if cfg.TickMS <= 0 {
		cfg.TickMS = 10
	}
	if cfg.Ticks < 0 {
		cfg.Ticks = 0
	}
	if cfg.InboxSlots <= 0 {
		cfg.InboxSlots = ipc.DefaultInboxSlots
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	if len(cfg.Tasks) == 0 {
		cfg.Tasks = defaultTasks()
	}

	return cfg, nil
}
