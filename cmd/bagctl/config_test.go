package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/bagctl/internal/config"
	"github.com/danmuck/bagctl/internal/testutil/testlog"
)

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected level: %q", cfg.Log.Level)
	}
	if !cfg.Log.Timestamp {
		t.Fatalf("expected timestamp default to survive")
	}
	if !cfg.Log.NoColor {
		t.Fatalf("expected no_color override")
	}
	if cfg.Server.Name != "bagctl" {
		t.Fatalf("unexpected name: %q", cfg.Server.Name)
	}
	if cfg.Server.Addr != "127.0.0.1:9300" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
	if len(cfg.Server.CorsOrigins) != 1 || cfg.Server.CorsOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", cfg.Server.CorsOrigins)
	}
	if cfg.Server.MaxBodyBytes != config.DefaultMaxBodyBytes {
		t.Fatalf("unexpected max body: %d", cfg.Server.MaxBodyBytes)
	}
	if !cfg.Inspect.MessagesOnly || cfg.Inspect.Digest {
		t.Fatalf("unexpected inspect flags: %+v", cfg.Inspect)
	}
	if len(cfg.Inspect.Topics) != 1 || cfg.Inspect.Topics[0] != "/chatter" {
		t.Fatalf("unexpected topics: %+v", cfg.Inspect.Topics)
	}
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Addr != config.Default().Server.Addr {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"level":  "[log]\nlevel = \"loud\"\n",
		"topic":  "[inspect]\ntopics = [\"chatter\"]\n",
		"body":   "[server]\nmax_body_bytes = 0\n",
		"syntax": "[server\n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		if _, err := loadConfig(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadConfigIgnoresUnknownKeys(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[server]\nname = \"bag-reader\"\nunknown = 1\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Name != "bag-reader" {
		t.Fatalf("unexpected name: %q", cfg.Server.Name)
	}
}

func TestNormalizeList(t *testing.T) {
	got := normalizeList([]string{" /a ", "", "  ", "/b"})
	if strings.Join(got, ",") != "/a,/b" {
		t.Fatalf("unexpected list: %+v", got)
	}
	if got := normalizeList(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}
