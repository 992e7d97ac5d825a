package engine

import (
	"testing"

	"github.com/vovakirdan/autochannel/internal/query"
)

func TestMutePorterMovesMutedClients(t *testing.T) {
	fs := newFakeSession()
	fs.clients = []query.Client{
		{ID: 2, ChannelID: 30, DatabaseID: 11, Nickname: "Muted", Type: 0},
		{ID: 3, ChannelID: 30, DatabaseID: 12, Nickname: "Talking", Type: 0},
		{ID: 4, ChannelID: 30, DatabaseID: 13, Nickname: "Listed", Type: 0},
		{ID: 5, ChannelID: 31, DatabaseID: 14, Nickname: "Elsewhere", Type: 0},
		{ID: 6, ChannelID: 30, DatabaseID: 15, Nickname: "Query", Type: 1},
	}
	fs.infos[2] = query.ClientInfo{InputMuted: true}
	fs.infos[4] = query.ClientInfo{OutputMuted: true}
	fs.infos[5] = query.ClientInfo{InputMuted: true}

	cfg := testConfig()
	cfg.MutePorter = MutePorterConfig{
		Enable:         true,
		MonitorChannel: 30,
		TargetChannel:  40,
		Whitelist:      []int64{13},
	}
	e, _, _ := newTestEngine(t, fs, cfg)

	if err := e.runMutePorter(); err != nil {
		t.Fatalf("runMutePorter: %v", err)
	}

	// only the muted, non-whitelisted user in the monitor channel moves
	if len(fs.moves) != 1 || fs.moves[0] != (move{2, 40}) {
		t.Fatalf("moves = %v, want [{2 40}]", fs.moves)
	}
}

func TestMutePorterWhitelist(t *testing.T) {
	cfg := MutePorterConfig{Whitelist: []int64{5, 7}}
	if !cfg.Whitelisted(5) || !cfg.Whitelisted(7) {
		t.Fatal("whitelisted ids not recognized")
	}
	if cfg.Whitelisted(6) {
		t.Fatal("unlisted id reported as whitelisted")
	}
}
