// Package app wires the query session, cache, notifier and engine
// together and owns their lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/autochannel/internal/config"
	"github.com/vovakirdan/autochannel/internal/engine"
	"github.com/vovakirdan/autochannel/internal/kv"
	kvredis "github.com/vovakirdan/autochannel/internal/kv/redis"
	kvsqlite "github.com/vovakirdan/autochannel/internal/kv/sqlite"
	"github.com/vovakirdan/autochannel/internal/notify"
	"github.com/vovakirdan/autochannel/internal/query"
)

// App owns the engine, its exclusive query session, a second session
// dedicated to private-message delivery, and the cache.
type App struct {
	cfg     config.Config
	log     *zerolog.Logger
	cache   kv.Map
	conn    *query.Conn
	msgConn *query.Conn
	queue   *notify.Queue
	engine  *engine.Engine
}

// New validates the configuration and connects every collaborator.
func New(ctx context.Context, cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	cache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	logger.Info().Str("backend", cfg.Cache.Backend).Msg("cache initialized")

	conn, err := dialSession(ctx, cfg.Query, logger)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("open engine session: %w", err)
	}

	// The engine owns conn exclusively, so message delivery runs over
	// its own authenticated session.
	msgConn, err := dialSession(ctx, cfg.Query, logger)
	if err != nil {
		conn.Close()
		cache.Close()
		return nil, fmt.Errorf("open messaging session: %w", err)
	}

	perms, err := cfg.Server.PermissionPairs()
	if err != nil {
		msgConn.Close()
		conn.Close()
		cache.Close()
		return nil, err
	}
	channelPerms := make(map[int64][]query.Permission, len(perms))
	for id, pairs := range perms {
		converted := make([]query.Permission, 0, len(pairs))
		for _, p := range pairs {
			converted = append(converted, query.Permission{ID: p.ID, Value: p.Value})
		}
		channelPerms[id] = converted
	}

	queue := notify.NewQueue(64, logger)
	eng := engine.New(conn, cache, queue, engine.Config{
		Channels:           cfg.Server.Channels,
		PrivilegeGroup:     cfg.Server.PrivilegeGroupID,
		ChannelPermissions: channelPerms,
		MovedMessage:       cfg.Message.MoveToChannel,
		Nickname:           cfg.Query.Nickname,
		PollInterval:       cfg.Query.PollInterval,
		MutePorter: engine.MutePorterConfig{
			Enable:         cfg.MutePorter.Enable,
			MonitorChannel: cfg.MutePorter.MonitorChannel,
			TargetChannel:  cfg.MutePorter.TargetChannel,
			Whitelist:      cfg.MutePorter.Whitelist,
		},
	}, logger)

	return &App{
		cfg:     cfg,
		log:     logger,
		cache:   cache,
		conn:    conn,
		msgConn: msgConn,
		queue:   queue,
		engine:  eng,
	}, nil
}

// Handle returns the engine handle callers use to inject events.
func (a *App) Handle() engine.Handle {
	return a.engine.Handle()
}

// Run starts the notifier and blocks on the engine loop until it
// exits or the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	notifyCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.queue.Run(notifyCtx, func(ctx context.Context, clientID int64, text string) error {
		return a.msgConn.SendTextMessage(clientID, text)
	})

	err := a.engine.Run(ctx)
	a.cleanup()
	return err
}

func (a *App) cleanup() {
	if err := a.msgConn.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close messaging session")
	}
	if err := a.conn.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close engine session")
	}
	if err := a.cache.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close cache")
	} else {
		a.log.Info().Msg("cache closed")
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig) (kv.Map, error) {
	switch cfg.Backend {
	case "redis":
		return kvredis.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "sqlite":
		return kvsqlite.New(cfg.Path)
	default:
		return kv.NewMemory(), nil
	}
}

// dialSession connects, authenticates and selects the virtual server.
func dialSession(ctx context.Context, cfg config.QueryConfig, logger *zerolog.Logger) (*query.Conn, error) {
	conn, err := query.Dial(ctx, cfg.Addr, logger)
	if err != nil {
		return nil, err
	}
	if err := conn.Login(cfg.Username, cfg.Password); err != nil {
		conn.Close()
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := conn.SelectServer(cfg.ServerID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("select server %d: %w", cfg.ServerID, err)
	}
	return conn, nil
}
