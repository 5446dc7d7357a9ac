package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/lanes.db")
	if cfg.Database.Path != "/tmp/lanes.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Board.DateLayout != "locale" {
		t.Fatalf("unexpected date layout %q", cfg.Board.DateLayout)
	}
	if cfg.Cache.Backend != CacheBackendMemory {
		t.Fatalf("unexpected cache backend %q", cfg.Cache.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/lanes.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
path = "/custom/lanes.db"

[board]
date_layout = "2006-01-02"

[attachments]
open_command = ["xdg-open"]

[logging]
level = "debug"

[logging.dev_file]
enabled = false

[server]
bind = ":9000"

[cache]
backend = "redis"
redis_url = "redis://cache:6379/1"
ttl = "90s"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/lanes.db" || cfg.Board.DateLayout != "2006-01-02" {
		t.Fatalf("unexpected overrides %#v", cfg)
	}
	if len(cfg.Attachments.OpenCommand) != 1 || cfg.Attachments.OpenCommand[0] != "xdg-open" {
		t.Fatalf("unexpected open command %#v", cfg.Attachments.OpenCommand)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.DevFile.Enabled {
		t.Fatalf("unexpected logging config %#v", cfg.Logging)
	}
	if cfg.Server.Bind != ":9000" || cfg.Server.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected server config %#v", cfg.Server)
	}
	ttl, err := cfg.Cache.TTLDuration()
	if err != nil || ttl != 90*time.Second || cfg.Cache.Backend != CacheBackendRedis {
		t.Fatalf("unexpected cache config %#v ttl=%v err=%v", cfg.Cache, ttl, err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"cache.backend":       "[cache]\nbackend = \"memcached\"\n",
		"cache.ttl":           "[cache]\nttl = \"soon\"\n",
		"logging.level":       "[logging]\nlevel = \"loud\"\n",
		"server.api_endpoint": "[server]\napi_endpoint = \"api\"\n",
		"database path":       "[database]\npath = \"  \"\n",
	}
	for want, content := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		_, err := Load(path, Default("/tmp/lanes.db"))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s error, got %v", want, err)
		}
	}
}

func TestEnsureConfigDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lanes", "config.toml")
	if err := EnsureConfigDir(path); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Fatalf("expected config dir to exist, err=%v", err)
	}
}
