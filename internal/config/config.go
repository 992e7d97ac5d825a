package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Config holds the bot's configuration values.
type Config struct {
	LogLevel   string           `mapstructure:"log_level" yaml:"log_level"`
	Query      QueryConfig      `mapstructure:"query" yaml:"query"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	MutePorter MutePorterConfig `mapstructure:"mute_porter" yaml:"mute_porter"`
	Message    MessageConfig    `mapstructure:"message" yaml:"message"`
}

// QueryConfig describes the ServerQuery endpoint and credentials.
type QueryConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	Username     string        `mapstructure:"username" yaml:"username"`
	Password     string        `mapstructure:"password" yaml:"password"`
	ServerID     int64         `mapstructure:"server_id" yaml:"server_id"`
	Nickname     string        `mapstructure:"nickname" yaml:"nickname"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// ServerConfig describes the monitored channels and provisioning
// parameters.
type ServerConfig struct {
	Channels         []int64 `mapstructure:"channels" yaml:"channels"`
	PrivilegeGroupID int64   `mapstructure:"privilege_group_id" yaml:"privilege_group_id"`

	// ChannelPermissions maps a monitored channel id (as a string,
	// since YAML map keys are strings) to extra permission pairs for
	// channels provisioned under it.
	ChannelPermissions map[string][]Permission `mapstructure:"channel_permissions" yaml:"channel_permissions"`
}

// Permission is one permid/permvalue pair.
type Permission struct {
	ID    int64 `mapstructure:"id" yaml:"id"`
	Value int64 `mapstructure:"value" yaml:"value"`
}

// CacheConfig selects and parameterizes the idempotency store.
type CacheConfig struct {
	// Backend is one of "sqlite", "redis" or "memory".
	Backend       string `mapstructure:"backend" yaml:"backend"`
	Path          string `mapstructure:"path" yaml:"path"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
}

// MutePorterConfig controls the muted-client relocation policy.
type MutePorterConfig struct {
	Enable         bool    `mapstructure:"enable" yaml:"enable"`
	MonitorChannel int64   `mapstructure:"monitor_channel" yaml:"monitor_channel"`
	TargetChannel  int64   `mapstructure:"target_channel" yaml:"target_channel"`
	Whitelist      []int64 `mapstructure:"whitelist" yaml:"whitelist"`
}

// MessageConfig holds user-facing message templates.
type MessageConfig struct {
	MoveToChannel string `mapstructure:"move_to_channel" yaml:"move_to_channel"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Query: QueryConfig{
			Addr:         "localhost:10011",
			Username:     "serveradmin",
			ServerID:     1,
			Nickname:     "AutoChannel Bot",
			PollInterval: 30 * time.Second,
		},
		Cache: CacheConfig{
			Backend: "sqlite",
			Path:    "autochannel.db",
		},
		Message: MessageConfig{
			MoveToChannel: "You were moved to your channel.",
		},
	}
}

// Validate checks the fields the bot cannot run without.
func (c Config) Validate() error {
	if c.Query.Addr == "" {
		return errors.New("query.addr is required")
	}
	if c.Query.Username == "" {
		return errors.New("query.username is required")
	}
	if c.Query.ServerID <= 0 {
		return errors.New("query.server_id must be positive")
	}
	switch c.Cache.Backend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("cache.backend %q is not one of sqlite, redis, memory", c.Cache.Backend)
	}
	if c.Cache.Backend == "sqlite" && c.Cache.Path == "" {
		return errors.New("cache.path is required for the sqlite backend")
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return errors.New("cache.redis_addr is required for the redis backend")
	}
	return nil
}

// PermissionPairs converts the string-keyed channel permission map
// into channel-id keys.
func (s ServerConfig) PermissionPairs() (map[int64][]Permission, error) {
	out := make(map[int64][]Permission, len(s.ChannelPermissions))
	for key, perms := range s.ChannelPermissions {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("channel_permissions key %q is not a channel id: %w", key, err)
		}
		out[id] = perms
	}
	return out, nil
}
