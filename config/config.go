package config

import (
	"errors"
	"fmt"
	"time"

	"blinks/cluster"
)

// Config is the root process configuration.
type Config struct {
	Server   ServerConfig                `toml:"server"`
	Log      LogConfig                   `toml:"log"`
	Database DatabaseConfig              `toml:"database"`
	Redis    RedisConfig                 `toml:"redis"`
	Cache    CacheConfig                 `toml:"cache"`
	Backend  BackendConfig               `toml:"backend"`
	Clusters map[string]cluster.Settings `toml:"-"`
}

type ServerConfig struct {
	Port int `toml:"port"`
	// PublicBaseURL is used for icons and links when IsProd is set;
	// otherwise the request origin is used.
	PublicBaseURL      string   `toml:"public_base_url"`
	IsProd             bool     `toml:"is_prod"`
	ContinuationSecret string   `toml:"continuation_secret"`
	ReadTimeout        duration `toml:"read_timeout"`
	WriteTimeout       duration `toml:"write_timeout"`
	CORSOrigins        []string `toml:"cors_origins"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DatabaseConfig - empty DSN disables persistence
type DatabaseConfig struct {
	DSN string `toml:"dsn"`
}

// RedisConfig - empty Addr keeps the challenge cache in process
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type CacheConfig struct {
	Size int      `toml:"size"`
	TTL  duration `toml:"ttl"`
}

type BackendConfig struct {
	Timeout     duration `toml:"timeout"`
	MaxAttempts int      `toml:"max_attempts"`
	AIURL       string   `toml:"ai_url"`
	AITimeout   duration `toml:"ai_timeout"`
}

// duration lets TOML carry "100s" style strings.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a config that runs against the public clusters.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:          8080,
			PublicBaseURL: "https://join.catoff.xyz",
			ReadTimeout:   duration{15 * time.Second},
			WriteTimeout:  duration{120 * time.Second},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Size: 512,
			TTL:  duration{30 * time.Second},
		},
		Backend: BackendConfig{
			Timeout:     duration{100 * time.Second},
			MaxAttempts: 5,
			AIURL:       "https://ai-api.catoff.xyz/generate-description-x-api-key/",
			AITimeout:   duration{100 * time.Second},
		},
		Clusters: cluster.DefaultSettings(),
	}
}

// Validate checks process-level values; cluster tables are checked by
// cluster.Registry.Validate.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.IsProd && c.Server.PublicBaseURL == "" {
		errs = append(errs, errors.New("server.public_base_url required when is_prod is set"))
	}
	if c.Backend.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("backend.max_attempts must be >= 1, got %d", c.Backend.MaxAttempts))
	}
	if c.Backend.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size))
	}
	if len(c.Clusters) == 0 {
		errs = append(errs, errors.New("at least one [clusters.<name>] table is required"))
	}
	return errors.Join(errs...)
}
