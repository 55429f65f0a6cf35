package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/bagctl/internal/config"
	"github.com/rs/zerolog/log"
)

type fileConfig struct {
	Log struct {
		Level     string `toml:"level"`
		Timestamp bool   `toml:"timestamp"`
		NoColor   bool   `toml:"no_color"`
	} `toml:"log"`
	Server struct {
		Name         string   `toml:"name"`
		Addr         string   `toml:"addr"`
		CorsOrigins  []string `toml:"cors_origins"`
		MaxBodyBytes int64    `toml:"max_body_bytes"`
	} `toml:"server"`
	Inspect struct {
		MessagesOnly bool     `toml:"messages_only"`
		Topics       []string `toml:"topics"`
		Digest       bool     `toml:"digest"`
	} `toml:"inspect"`
}

// loadConfig overlays the keys defined in path onto the defaults. An empty
// path yields the defaults.
func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.Config{}, fmt.Errorf("load bagctl config: %w", err)
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	if meta.IsDefined("server", "name") {
		cfg.Server.Name = strings.TrimSpace(raw.Server.Name)
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = normalizeList(raw.Server.CorsOrigins)
	}
	if meta.IsDefined("server", "max_body_bytes") {
		cfg.Server.MaxBodyBytes = raw.Server.MaxBodyBytes
	}

	if meta.IsDefined("inspect", "messages_only") {
		cfg.Inspect.MessagesOnly = raw.Inspect.MessagesOnly
	}
	if meta.IsDefined("inspect", "topics") {
		cfg.Inspect.Topics = normalizeList(raw.Inspect.Topics)
	}
	if meta.IsDefined("inspect", "digest") {
		cfg.Inspect.Digest = raw.Inspect.Digest
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Warn().Str("path", path).Msgf("ignoring unknown config keys %v", undecoded)
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, fmt.Errorf("validate bagctl config: %w", err)
	}
	return cfg, nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
