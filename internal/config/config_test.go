package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = "etcd"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown cache backend")
	}
}

func TestValidateRedisNeedsAddr(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis backend without address")
	}
}

func TestPermissionPairs(t *testing.T) {
	s := ServerConfig{
		ChannelPermissions: map[string][]Permission{
			"10": {{ID: 77, Value: 30}},
			"20": {{ID: 133, Value: 50}, {ID: 78, Value: 1}},
		},
	}
	pairs, err := s.PermissionPairs()
	if err != nil {
		t.Fatalf("PermissionPairs: %v", err)
	}
	if len(pairs[10]) != 1 || pairs[10][0] != (Permission{ID: 77, Value: 30}) {
		t.Fatalf("pairs[10] = %v", pairs[10])
	}
	if len(pairs[20]) != 2 {
		t.Fatalf("pairs[20] = %v", pairs[20])
	}
}

func TestPermissionPairsBadKey(t *testing.T) {
	s := ServerConfig{
		ChannelPermissions: map[string][]Permission{"lobby": {{ID: 1, Value: 1}}},
	}
	if _, err := s.PermissionPairs(); err == nil {
		t.Fatal("expected error for non-numeric channel key")
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
log_level: debug
query:
  addr: ts.example.com:10011
  username: bot
  password: secret
  server_id: 2
  poll_interval: 45s
server:
  channels: [10, 20]
  privilege_group_id: 6
cache:
  backend: memory
mute_porter:
  enable: true
  monitor_channel: 30
  target_channel: 40
  whitelist: [13]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, gotPath, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotPath != path {
		t.Fatalf("resolved path = %q, want %q", gotPath, path)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
	if cfg.Query.Addr != "ts.example.com:10011" || cfg.Query.ServerID != 2 {
		t.Fatalf("query config = %+v", cfg.Query)
	}
	if cfg.Query.PollInterval != 45*time.Second {
		t.Fatalf("poll interval = %v", cfg.Query.PollInterval)
	}
	if len(cfg.Server.Channels) != 2 || cfg.Server.Channels[0] != 10 {
		t.Fatalf("channels = %v", cfg.Server.Channels)
	}
	if !cfg.MutePorter.Enable || cfg.MutePorter.TargetChannel != 40 {
		t.Fatalf("mute porter = %+v", cfg.MutePorter)
	}
	// defaults still apply for unset keys
	if cfg.Message.MoveToChannel == "" {
		t.Fatal("message default missing")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config invalid: %v", err)
	}
}

func TestLoadWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Query.Addr != Default().Query.Addr {
		t.Fatalf("defaults not applied: %+v", cfg.Query)
	}
}
