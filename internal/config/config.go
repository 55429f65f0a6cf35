package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/bagctl/internal/logging"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Log     LogConfig     `toml:"log"`
	Server  ServerConfig  `toml:"server"`
	Inspect InspectConfig `toml:"inspect"`
}

type LogConfig struct {
	Level     string `toml:"level"`
	Timestamp bool   `toml:"timestamp"`
	NoColor   bool   `toml:"no_color"`
}

type ServerConfig struct {
	Name         string   `toml:"name"`
	Addr         string   `toml:"addr"`
	CorsOrigins  []string `toml:"cors_origins"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
}

type InspectConfig struct {
	MessagesOnly bool     `toml:"messages_only"`
	Topics       []string `toml:"topics"`
	Digest       bool     `toml:"digest"`
}

const DefaultMaxBodyBytes = 64 << 20

func Default() Config {
	return Config{
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
		Server: ServerConfig{
			Name:         "bagctl",
			Addr:         ":9200",
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
	}
}

// Load reads a TOML config. Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func Validate(cfg Config) error {
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log config has unknown level %q", cfg.Log.Level)
	}
	if strings.TrimSpace(cfg.Server.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server config max_body_bytes must be positive, got %d", cfg.Server.MaxBodyBytes)
	}
	for i, topic := range cfg.Inspect.Topics {
		if !strings.HasPrefix(strings.TrimSpace(topic), "/") {
			return fmt.Errorf("inspect topics[%d] %q must start with '/'", i, topic)
		}
	}
	return nil
}

// LoggingConfig converts the log section for the logging package.
func (c Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{
		Level:     level,
		Timestamp: c.Log.Timestamp,
		NoColor:   c.Log.NoColor,
		Out:       os.Stderr,
	}
}
