package louvain

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages algorithm configuration using Viper.
type Config struct {
	v *viper.Viper
}

// NewConfig creates a configuration with defaults. A negative random seed
// selects the deterministic ascending-ID visitation order.
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.max_levels", 10)
	v.SetDefault("algorithm.max_iterations", 100)
	v.SetDefault("algorithm.tolerance", 1e-9)
	v.SetDefault("algorithm.random_seed", int64(-1))
	v.SetDefault("algorithm.time_budget", time.Duration(0))

	// Performance parameters
	v.SetDefault("performance.parallel", false)
	v.SetDefault("performance.chunk_size", 1000)
	v.SetDefault("performance.num_workers", runtime.NumCPU())

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", false)

	return &Config{v: v}
}

// LoadFromFile loads configuration from file.
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) MaxLevels() int             { return c.v.GetInt("algorithm.max_levels") }
func (c *Config) MaxIterations() int         { return c.v.GetInt("algorithm.max_iterations") }
func (c *Config) Tolerance() float64         { return c.v.GetFloat64("algorithm.tolerance") }
func (c *Config) RandomSeed() int64          { return c.v.GetInt64("algorithm.random_seed") }
func (c *Config) TimeBudget() time.Duration  { return c.v.GetDuration("algorithm.time_budget") }

func (c *Config) Parallel() bool   { return c.v.GetBool("performance.parallel") }
func (c *Config) ChunkSize() int   { return c.v.GetInt("performance.chunk_size") }
func (c *Config) NumWorkers() int  { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string     { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

// Set allows dynamic configuration changes.
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config.
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "louvain").Logger()
}
