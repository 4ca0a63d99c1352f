package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the full goudsim configuration, one field per TOML table.
type Config struct {
	World   WorldConfig   `toml:"world"`
	Physics PhysicsConfig `toml:"physics"`
	Assets  AssetsConfig  `toml:"assets"`
	Sim     SimConfig     `toml:"sim"`
	Logging LoggingConfig `toml:"logging"`
}

// WorldConfig sizes the ECS world.
type WorldConfig struct {
	InitialCapacity int `toml:"initial_capacity"`
}

// PhysicsConfig holds the broad-phase cell size and the collision response
// parameters.
type PhysicsConfig struct {
	CellSize           float32 `toml:"cell_size"`
	Restitution        float32 `toml:"restitution"`
	Friction           float32 `toml:"friction"`
	PositionCorrection float32 `toml:"position_correction"` // Baumgarte factor, 0-1
	Slop               float32 `toml:"slop"`
}

// AssetsConfig points at the asset manifest preloaded at startup.
type AssetsConfig struct {
	Root            string `toml:"root"`     // directory the manifest paths are relative to
	Manifest        string `toml:"manifest"` // empty skips preloading
	ReadConcurrency int    `toml:"read_concurrency"`
}

// SimConfig drives the headless simulation.
type SimConfig struct {
	Ticks    int           `toml:"ticks"`     // 0 runs until interrupted
	TickRate time.Duration `toml:"tick_rate"` // 0 runs ticks back to back
	Bodies   int           `toml:"bodies"`
	Arena    float32       `toml:"arena"` // side length of the square bodies spawn in
	Seed     int64         `toml:"seed"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads the TOML file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			InitialCapacity: 1024,
		},
		Physics: PhysicsConfig{
			CellSize:           32,
			Restitution:        0.4,
			Friction:           0.4,
			PositionCorrection: 0.4,
			Slop:               0.01,
		},
		Assets: AssetsConfig{
			Root:            "assets",
			ReadConcurrency: 8,
		},
		Sim: SimConfig{
			Ticks:    600,
			TickRate: 16 * time.Millisecond,
			Bodies:   500,
			Arena:    1024,
			Seed:     1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.World.InitialCapacity < 0:
		return eris.Errorf("world.initial_capacity must not be negative, got %d", c.World.InitialCapacity)
	case !(c.Physics.CellSize > 0):
		return eris.Errorf("physics.cell_size must be positive, got %v", c.Physics.CellSize)
	case c.Physics.Slop < 0:
		return eris.Errorf("physics.slop must not be negative, got %v", c.Physics.Slop)
	case c.Assets.ReadConcurrency < 1:
		return eris.Errorf("assets.read_concurrency must be at least 1, got %d", c.Assets.ReadConcurrency)
	case c.Sim.Ticks < 0 || c.Sim.Bodies < 0 || c.Sim.TickRate < 0:
		return eris.New("sim.ticks, sim.bodies and sim.tick_rate must not be negative")
	case !(c.Sim.Arena > 0):
		return eris.Errorf("sim.arena must be positive, got %v", c.Sim.Arena)
	case c.Logging.Format != "console" && c.Logging.Format != "json":
		return eris.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// Build creates the zap logger described by c. An unknown level falls back
// to info.
func (c LoggingConfig) Build() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if c.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	log, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "build logger")
	}
	return log, nil
}
