package engine

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config collects every tunable of the engine in one struct. All fields can
// be overridden through the environment.
type Config struct {
	StreamURL   string `env:"FIREFLY_STREAM_URL" envDefault:"ws://localhost:8000/ws/traces"`
	TopologyURL string `env:"FIREFLY_TOPOLOGY_URL"`
	MonitorAddr string `env:"FIREFLY_MONITOR_ADDR" envDefault:":3001"`

	PoolCapacity int     `env:"FIREFLY_POOL_CAPACITY" envDefault:"50000"`
	TickRate     float64 `env:"FIREFLY_TICK_RATE" envDefault:"60"`

	DecayInterval time.Duration `env:"FIREFLY_DECAY_INTERVAL" envDefault:"2s"`
	DecayAfter    time.Duration `env:"FIREFLY_DECAY_AFTER" envDefault:"1s"`
	DecayFactor   float64       `env:"FIREFLY_DECAY_FACTOR" envDefault:"0.95"`
	IdleBelow     float64       `env:"FIREFLY_IDLE_BELOW" envDefault:"0.1"`

	ShellRadiusCore       float64 `env:"FIREFLY_SHELL_CORE" envDefault:"20"`
	ShellRadiusMemory     float64 `env:"FIREFLY_SHELL_MEMORY" envDefault:"60"`
	ShellRadiusPerception float64 `env:"FIREFLY_SHELL_PERCEPTION" envDefault:"100"`

	SpeedLow    float64 `env:"FIREFLY_SPEED_LOW" envDefault:"0.35"`
	SpeedNormal float64 `env:"FIREFLY_SPEED_NORMAL" envDefault:"0.6"`
	SpeedHigh   float64 `env:"FIREFLY_SPEED_HIGH" envDefault:"0.9"`

	SmoothingAlpha float64 `env:"FIREFLY_SMOOTHING_ALPHA" envDefault:"0.1"`
	BrightnessLerp float64 `env:"FIREFLY_BRIGHTNESS_LERP" envDefault:"0.15"`
	CurveLift      float64 `env:"FIREFLY_CURVE_LIFT" envDefault:"0.25"`
	ReconcileEvery int     `env:"FIREFLY_RECONCILE_EVERY" envDefault:"60"`

	ReconnectBackoff time.Duration `env:"FIREFLY_RECONNECT_BACKOFF" envDefault:"2s"`
	RecordingPath    string        `env:"FIREFLY_RECORDING_PATH"`
	OpenBrowser      bool          `env:"FIREFLY_OPEN_BROWSER"`
}

// DefaultConfig returns the configuration used when no environment override
// is present.
func DefaultConfig() Config {
	return Config{
		StreamURL:             "ws://localhost:8000/ws/traces",
		MonitorAddr:           ":3001",
		PoolCapacity:          50000,
		TickRate:              60,
		DecayInterval:         2 * time.Second,
		DecayAfter:            time.Second,
		DecayFactor:           0.95,
		IdleBelow:             0.1,
		ShellRadiusCore:       20,
		ShellRadiusMemory:     60,
		ShellRadiusPerception: 100,
		SpeedLow:              0.35,
		SpeedNormal:           0.6,
		SpeedHigh:             0.9,
		SmoothingAlpha:        0.1,
		BrightnessLerp:        0.15,
		CurveLift:             0.25,
		ReconcileEvery:        60,
		ReconnectBackoff:      2 * time.Second,
	}
}

// LoadConfig builds the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.PoolCapacity <= 0 {
		return errors.New("pool capacity must be positive")
	}
	if c.TickRate <= 0 {
		return errors.New("tick rate must be positive")
	}
	if c.DecayInterval <= 0 {
		return errors.New("decay interval must be positive")
	}
	if c.DecayFactor <= 0 || c.DecayFactor >= 1 {
		return errors.New("decay factor must be in (0, 1)")
	}
	if c.ReconcileEvery <= 0 {
		return errors.New("reconcile interval must be positive")
	}
	if c.ShellRadiusCore >= c.ShellRadiusMemory ||
		c.ShellRadiusMemory >= c.ShellRadiusPerception {
		return errors.New("shell radii must increase from core outward")
	}

	return nil
}

// TickInterval returns the wall-clock period of the render tick.
func (c Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}
