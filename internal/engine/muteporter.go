package engine

import (
	"fmt"
	"slices"
)

// MutePorterConfig controls relocation of muted clients out of a
// monitored channel.
type MutePorterConfig struct {
	Enable         bool
	MonitorChannel int64
	TargetChannel  int64
	Whitelist      []int64
}

// Whitelisted reports whether a client database id is exempt.
func (c MutePorterConfig) Whitelisted(clientDatabaseID int64) bool {
	return slices.Contains(c.Whitelist, clientDatabaseID)
}

// runMutePorter moves muted, non-whitelisted users out of the monitor
// channel. Runs only on timer ticks. Individual client failures are
// logged and isolated; only the client enumeration itself is fatal.
func (e *Engine) runMutePorter() error {
	mp := e.cfg.MutePorter
	clients, err := e.session.Clients()
	if err != nil {
		return fmt.Errorf("mute porter: query clients: %w", err)
	}
	for _, client := range clients {
		if !client.IsUser() || client.ChannelID != mp.MonitorChannel || mp.Whitelisted(client.DatabaseID) {
			continue
		}
		info, err := e.session.ClientInfo(client.ID)
		if err != nil {
			e.log.Error().Err(err).Int64("client_id", client.ID).Msg("query client info failed")
			continue
		}
		if !info.Muted() {
			continue
		}
		if err := e.session.MoveClient(client.ID, mp.TargetChannel); err != nil {
			e.log.Error().Err(err).Int64("client_id", client.ID).Int64("channel_id", mp.TargetChannel).Msg("mute porter move failed")
			continue
		}
		e.log.Info().Int64("client_id", client.ID).Int64("channel_id", mp.TargetChannel).Msg("moved muted client")
	}
	return nil
}
