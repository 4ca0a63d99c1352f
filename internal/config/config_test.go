package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goudsim.toml")
	data := `
[physics]
cell_size = 12.5
restitution = 0.9

[sim]
ticks = 30
tick_rate = "5ms"

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Physics.CellSize != 12.5 || cfg.Physics.Restitution != 0.9 {
		t.Errorf("physics not decoded: %+v", cfg.Physics)
	}
	if cfg.Physics.Friction != 0.4 {
		t.Errorf("unset key lost its default: %v", cfg.Physics.Friction)
	}
	if cfg.Sim.Ticks != 30 || cfg.Sim.TickRate != 5*time.Millisecond {
		t.Errorf("sim not decoded: %+v", cfg.Sim)
	}
	if cfg.World.InitialCapacity != 1024 {
		t.Errorf("world default lost: %+v", cfg.World)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"zero cell size", "[physics]\ncell_size = 0.0\n"},
		{"negative slop", "[physics]\nslop = -1.0\n"},
		{"bad format", "[logging]\nformat = \"xml\"\n"},
		{"no readers", "[assets]\nread_concurrency = 0\n"},
		{"syntax", "[physics\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error")
	}
}

func TestBuildLogger(t *testing.T) {
	log, err := LoggingConfig{Level: "warn", Format: "console"}.Build()
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) || !log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("level not applied")
	}
	log, err = LoggingConfig{Level: "nonsense", Format: "json"}.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("unknown level should fall back to info")
	}
}
