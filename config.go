package clob

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// Config is the Engine's environment-driven configuration, loaded the way
// MuhammadChandra19-exchange's matching-service config package does: an
// optional .env file merged with caarlos0/env struct tags, so a container
// environment or a local .env file both work unchanged.
type Config struct {
	QueueSize    int64         `env:"CLOB_QUEUE_SIZE" envDefault:"1024"`
	IdlePark     time.Duration `env:"CLOB_IDLE_PARK" envDefault:"10us"`
	LogLevel     string        `env:"CLOB_LOG_LEVEL" envDefault:"info"`
	HistoryLimit int           `env:"CLOB_HISTORY_LIMIT" envDefault:"10000"`
	TickExponent int32         `env:"CLOB_TICK_EXPONENT" envDefault:"2"`
}

// DefaultConfig returns the Config an Engine uses when no environment
// override is present.
func DefaultConfig() *Config {
	return &Config{
		QueueSize:    defaultQueueSize,
		IdlePark:     10 * time.Microsecond,
		LogLevel:     "info",
		HistoryLimit: 10000,
		TickExponent: 2,
	}
}

// LoadConfig reads a .env file if present, then overlays process
// environment variables onto DefaultConfig.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if err := env.Parse(cfg); err != nil {
		return nil, wrapf(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, wrapf(err, "load config")
	}
	return cfg, nil
}

// Validate collects every malformed field into a single error instead of
// failing on the first one, the way go.uber.org/multierr is used elsewhere
// in the stack this config loader is modeled on — a misconfigured deploy
// should report all of its problems at once.
func (c *Config) Validate() error {
	var errs error
	if c.QueueSize <= 0 {
		errs = multierr.Append(errs, wrapf(ErrInvalidArgs, "queue size must be positive, got %d", c.QueueSize))
	}
	if c.IdlePark <= 0 {
		errs = multierr.Append(errs, wrapf(ErrInvalidArgs, "idle park must be positive, got %s", c.IdlePark))
	}
	if c.HistoryLimit <= 0 {
		errs = multierr.Append(errs, wrapf(ErrInvalidArgs, "history limit must be positive, got %d", c.HistoryLimit))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, wrapf(ErrInvalidArgs, "unknown log level %q", c.LogLevel))
	}
	if c.TickExponent < 0 {
		errs = multierr.Append(errs, wrapf(ErrInvalidArgs, "tick exponent must not be negative, got %d", c.TickExponent))
	}
	return errs
}
