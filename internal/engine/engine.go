// Package engine runs the auto-channel state machine: it polls
// connected clients, provisions per-user private channels under the
// monitored channels, and relocates muted users.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/autochannel/internal/kv"
	"github.com/vovakirdan/autochannel/internal/query"
)

// Protocol error codes the engine branches on.
const (
	codeInvalidChannelID = 768
	codeChannelNameTaken = 771
)

// maxNameRetries bounds the name-collision retry loop. After the cap
// one final attempt carries a random suffix; then the client is
// skipped for the iteration.
const maxNameRetries = 32

const defaultPollInterval = 30 * time.Second

// defaultChannelPermissions is applied to every freshly provisioned
// channel before any per-monitor-channel extras.
var defaultChannelPermissions = []query.Permission{{ID: 133, Value: 75}}

// Session is the slice of query operations the engine drives. It is
// implemented by *query.Conn.
type Session interface {
	ChangeNickname(nickname string) error
	WhoAmI() (query.WhoAmI, error)
	ServerInfo() (query.ServerInfo, error)
	RegisterEvents() error
	Clients() ([]query.Client, error)
	CreateChannel(name string, parent int64) (query.CreatedChannel, error)
	MoveClient(clientID, channelID int64) error
	SetClientChannelGroup(clientDatabaseID, channelID, groupID int64) error
	AddChannelPermissions(channelID int64, perms []query.Permission) error
	DatabaseIDFromUID(uid string) (int64, error)
	ClientInfo(clientID int64) (query.ClientInfo, error)
	Keepalive() error
	Logout() error
}

// Notifier enqueues outbound private messages.
type Notifier interface {
	Enqueue(clientID int64, text string) bool
}

// Config is the engine's immutable runtime configuration.
type Config struct {
	// Channels is the monitored channel set. Only clients sitting in
	// one of these are candidates for provisioning.
	Channels []int64

	// PrivilegeGroup is assigned to the owner inside a fresh channel.
	PrivilegeGroup int64

	// ChannelPermissions maps a monitored channel to extra permission
	// pairs applied to channels provisioned under it.
	ChannelPermissions map[int64][]query.Permission

	// MovedMessage is sent to a client after a successful move.
	MovedMessage string

	// Nickname, when non-empty, is set during bootstrap.
	Nickname string

	// PollInterval is the wait-phase timer; zero means 30 seconds.
	PollInterval time.Duration

	MutePorter MutePorterConfig
}

// Engine owns one query session exclusively and consumes events from
// its handle. The loop is single-goroutine; state needs no locking.
type Engine struct {
	session Session
	cache   kv.Map
	notify  Notifier
	cfg     Config
	log     *zerolog.Logger
	events  chan Event

	// session identity, fixed after bootstrap
	who    query.WhoAmI
	server query.ServerInfo
}

// New constructs an engine. It does not touch the session until Run.
func New(session Session, cache kv.Map, notifier Notifier, cfg Config, logger *zerolog.Logger) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Engine{
		session: session,
		cache:   cache,
		notify:  notifier,
		cfg:     cfg,
		log:     logger,
		events:  make(chan Event, 16),
	}
}

// Handle returns a handle bound to this engine's event channel.
func (e *Engine) Handle() Handle {
	return NewHandle(e.cfg.Channels, e.events)
}

// Run bootstraps the session and enters the poll loop. It returns nil
// after a Terminate event or context cancellation, and an error on any
// fatal condition. The session is logged out on every exit path.
func (e *Engine) Run(ctx context.Context) error {
	defer func() {
		if err := e.session.Logout(); err != nil {
			e.log.Warn().Err(err).Msg("logout failed")
		}
	}()

	if err := e.bootstrap(); err != nil {
		return err
	}

	var (
		shouldRefresh bool
		// skipSleep forces the scan phase without waiting; the first
		// iteration always scans, and a stale cache hit re-arms it.
		skipSleep = true
	)
	for {
		if !skipSleep {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-e.events:
				if !ok {
					return errors.New("event channel closed")
				}
				switch ev := ev.(type) {
				case terminateEvent:
					return nil
				case updateEvent:
					if ev.Info.ClientID == e.who.ClientID {
						continue
					}
				case deleteChannelEvent:
					if err := e.handleDelete(ctx, ev); err != nil {
						return err
					}
					continue
				case refreshEvent:
					shouldRefresh = true
					continue
				}
			case <-time.After(e.cfg.PollInterval):
				if err := e.session.Keepalive(); err != nil {
					e.log.Error().Err(err).Msg("keepalive failed")
				}
				if e.cfg.MutePorter.Enable {
					if err := e.runMutePorter(); err != nil {
						return err
					}
				}
				if !shouldRefresh {
					continue
				}
			}
		} else {
			skipSleep = false
		}

		clients, err := e.session.Clients()
		if err != nil {
			e.log.Error().Err(err).Msg("query clients failed")
			continue
		}
		force, err := e.scan(ctx, clients)
		if err != nil {
			return err
		}
		skipSleep = force
		shouldRefresh = false
	}
}

func (e *Engine) bootstrap() error {
	if e.cfg.Nickname != "" {
		if err := e.session.ChangeNickname(e.cfg.Nickname); err != nil {
			return fmt.Errorf("change nickname: %w", err)
		}
	}

	who, err := e.session.WhoAmI()
	if err != nil {
		return fmt.Errorf("whoami: %w", err)
	}
	e.who = who

	server, err := e.session.ServerInfo()
	if err != nil {
		return fmt.Errorf("query server info: %w", err)
	}
	e.server = server

	if err := e.session.RegisterEvents(); err != nil {
		return fmt.Errorf("register events: %w", err)
	}

	e.log.Info().
		Int64("client_id", who.ClientID).
		Str("server", server.UniqueID).
		Int("monitored", len(e.cfg.Channels)).
		Msg("connected")
	return nil
}

// scan applies provisioning to every eligible connected client. It
// reports whether the next iteration should rescan immediately, and
// returns an error only for session-fatal conditions.
func (e *Engine) scan(ctx context.Context, clients []query.Client) (bool, error) {
	force := false
	for _, client := range clients {
		if client.DatabaseID == e.who.DatabaseID || !e.monitored(client.ChannelID) || !client.IsUser() {
			continue
		}

		key := cacheKey(client.DatabaseID, e.server.UniqueID, client.ChannelID)
		cached, hit, err := e.cache.Get(ctx, key)
		if err != nil {
			return force, fmt.Errorf("cache get: %w", err)
		}

		var target int64
		if hit {
			target, err = strconv.ParseInt(cached, 10, 64)
			if err != nil {
				e.log.Error().Err(err).Str("key", key).Msg("unparsable cache entry, reprovisioning")
				hit = false
			}
		}
		if !hit {
			target, err = e.provision(client)
			if err != nil {
				e.log.Error().Err(err).Str("nickname", client.Nickname).Msg("provision failed")
				continue
			}
		}

		if err := e.session.MoveClient(client.ID, target); err != nil {
			var qerr *query.Error
			if errors.As(err, &qerr) && qerr.Code == codeInvalidChannelID {
				// The cached channel no longer accepts this client:
				// drop the entry and rescan without sleeping.
				if derr := e.cache.Delete(ctx, key); derr != nil {
					return force, fmt.Errorf("cache delete: %w", derr)
				}
				force = true
				continue
			}
			e.log.Error().Err(err).Int64("client_id", client.ID).Int64("channel_id", target).Msg("move client failed")
			continue
		}

		if !e.notify.Enqueue(client.ID, e.cfg.MovedMessage) {
			e.log.Warn().Int64("client_id", client.ID).Msg("moved message enqueue failed")
		}

		if !hit {
			if err := e.session.MoveClient(e.who.ClientID, client.ChannelID); err != nil {
				return force, fmt.Errorf("move self back to channel %d: %w", client.ChannelID, err)
			}
			if err := e.cache.Set(ctx, key, strconv.FormatInt(target, 10)); err != nil {
				return force, fmt.Errorf("cache set: %w", err)
			}
		}

		e.log.Info().Str("nickname", client.Nickname).Int64("channel_id", target).Msg("client moved")
	}
	return force, nil
}

// provision creates a private channel for the client under its current
// channel, retrying name collisions, then applies the privilege group
// and permissions. Permission failures are logged, not fatal.
func (e *Engine) provision(client query.Client) (int64, error) {
	name := client.Nickname + "'s channel"
	var created query.CreatedChannel
	for attempt := 0; ; attempt++ {
		c, err := e.session.CreateChannel(name, client.ChannelID)
		if err != nil {
			var qerr *query.Error
			if errors.As(err, &qerr) && qerr.Code == codeChannelNameTaken {
				if attempt < maxNameRetries {
					name += "1"
					continue
				}
				if attempt == maxNameRetries {
					name = fmt.Sprintf("%s's channel %s", client.Nickname, uuid.NewString()[:8])
					continue
				}
			}
			return 0, fmt.Errorf("create channel %q: %w", name, err)
		}
		created = c
		break
	}

	if err := e.session.SetClientChannelGroup(client.DatabaseID, created.ID, e.cfg.PrivilegeGroup); err != nil {
		e.log.Error().Err(err).Int64("channel_id", created.ID).Msg("set channel group failed")
	}
	if err := e.session.AddChannelPermissions(created.ID, defaultChannelPermissions); err != nil {
		e.log.Error().Err(err).Int64("channel_id", created.ID).Msg("set default permissions failed")
	}
	if perms, ok := e.cfg.ChannelPermissions[client.ChannelID]; ok {
		if err := e.session.AddChannelPermissions(created.ID, perms); err != nil {
			e.log.Error().Err(err).Int64("channel_id", created.ID).Msg("set configured permissions failed")
		}
	}
	return created.ID, nil
}

// handleDelete forgets every cache entry a client may own across the
// monitored set and acknowledges the requester. A failed uid
// resolution is fatal: identity lookups are foundational.
func (e *Engine) handleDelete(ctx context.Context, ev deleteChannelEvent) error {
	dbID, err := e.session.DatabaseIDFromUID(ev.UID)
	if err != nil {
		return fmt.Errorf("resolve client uid %q: %w", ev.UID, err)
	}
	for _, channelID := range e.cfg.Channels {
		key := cacheKey(dbID, e.server.UniqueID, channelID)
		if err := e.cache.Delete(ctx, key); err != nil {
			e.log.Error().Err(err).Str("key", key).Msg("cache delete failed")
		}
	}
	if !e.notify.Enqueue(ev.Requester, "Received.") {
		e.log.Error().Int64("client_id", ev.Requester).Msg("acknowledge enqueue failed")
	}
	return nil
}

func (e *Engine) monitored(channelID int64) bool {
	for _, id := range e.cfg.Channels {
		if id == channelID {
			return true
		}
	}
	return false
}

// cacheKey derives the deterministic idempotency key for one
// (client, server, monitored channel) triple.
func cacheKey(clientDatabaseID int64, serverUID string, channelID int64) string {
	return fmt.Sprintf("ts_autochannel_%d_%s_%d", clientDatabaseID, serverUID, channelID)
}
