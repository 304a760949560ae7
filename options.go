package kvcore

import "errors"

// ErrInvalidConfig indicates invalid configuration options.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the process-wide configuration surface the dispatch core
// consumes (spec.md §6 "Config surface consumed"): the two listener ports,
// the requirepass gate, the shard count, and the master/replica flag.
// Flag parsing itself is out of scope (spec.md §1) — Config is populated by
// whatever collaborator owns the process's CLI/env handling.
type Config struct {
	// Port is the RESP listener port.
	Port uint32

	// MemcachePort is the Memcached text listener port. Zero disables it.
	MemcachePort uint32

	// RequirePass, when non-empty, means new connections start with
	// REQ_AUTH set (spec.md §6).
	RequirePass string

	// ShardCount is the number of storage/lock shards; rounded up to the
	// next power of two.
	ShardCount int

	// Master is false for a read-only replica (spec.md §4.2 step 6).
	Master bool

	// Logger and Metrics are referenced only by interface — see interfaces.go.
	Logger  Logger
	Metrics MetricsCollector
}

// defaultConfig returns a configuration with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Port:         6380,
		MemcachePort: 0,
		ShardCount:   64,
		Master:       true,
		Logger:       &defaultLogger{},
		Metrics:      NewCommandStats(),
	}
}

// Option configures a Config.
type Option func(*Config) error

// NewConfig builds a Config from the given options, applying defaults first.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithPort sets the RESP listener port. Zero lets the OS pick a free port,
// which the server reports through its Addr method once started.
func WithPort(port uint32) Option {
	return func(c *Config) error {
		c.Port = port
		return nil
	}
}

// WithMemcachePort sets the Memcached text listener port. Zero disables it.
func WithMemcachePort(port uint32) Option {
	return func(c *Config) error {
		c.MemcachePort = port
		return nil
	}
}

// WithRequirePass sets the connection password gate.
//
// Example:
//
//	WithRequirePass("s3cret")
func WithRequirePass(password string) Option {
	return func(c *Config) error {
		c.RequirePass = password
		return nil
	}
}

// WithShardCount sets the number of storage/lock shards.
func WithShardCount(count int) Option {
	return func(c *Config) error {
		if count <= 0 {
			return ErrInvalidConfig
		}
		c.ShardCount = count
		return nil
	}
}

// WithMaster sets whether this instance accepts writes.
func WithMaster(master bool) Option {
	return func(c *Config) error {
		c.Master = master
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return ErrInvalidConfig
		}
		c.Logger = logger
		return nil
	}
}

// WithMetrics sets a custom metrics collector.
func WithMetrics(collector MetricsCollector) Option {
	return func(c *Config) error {
		if collector == nil {
			return ErrInvalidConfig
		}
		c.Metrics = collector
		return nil
	}
}
