package query

// WhoAmI identifies the bot's own session. Fetched once at bootstrap
// and immutable for the session's lifetime.
type WhoAmI struct {
	ClientID   int64
	DatabaseID int64
}

func decodeWhoAmI(r record) (WhoAmI, error) {
	var (
		w   WhoAmI
		err error
	)
	if w.ClientID, err = r.int64("client_id"); err != nil {
		return w, err
	}
	if w.DatabaseID, err = r.int64("client_database_id"); err != nil {
		return w, err
	}
	return w, nil
}

// ServerInfo carries the virtual-server identity used to namespace
// cache keys.
type ServerInfo struct {
	UniqueID string
}

func decodeServerInfo(r record) (ServerInfo, error) {
	uid, err := r.str("virtualserver_unique_identifier")
	if err != nil {
		return ServerInfo{}, err
	}
	return ServerInfo{UniqueID: uid}, nil
}

// Client is one row of a clientlist response.
type Client struct {
	ID         int64
	ChannelID  int64
	DatabaseID int64
	Nickname   string
	Type       int64
}

// IsUser reports whether the client is a regular user rather than a
// query/bot connection (client_type 1).
func (c Client) IsUser() bool {
	return c.Type == 0
}

func decodeClient(r record) (Client, error) {
	var (
		c   Client
		err error
	)
	if c.ID, err = r.int64("clid"); err != nil {
		return c, err
	}
	if c.ChannelID, err = r.int64("cid"); err != nil {
		return c, err
	}
	if c.DatabaseID, err = r.int64("client_database_id"); err != nil {
		return c, err
	}
	if c.Nickname, err = r.str("client_nickname"); err != nil {
		return c, err
	}
	if c.Type, err = r.int64("client_type"); err != nil {
		return c, err
	}
	return c, nil
}

// Channel is one row of a channellist response.
type Channel struct {
	ID       int64
	ParentID int64
}

func decodeChannel(r record) (Channel, error) {
	var (
		c   Channel
		err error
	)
	if c.ID, err = r.int64("cid"); err != nil {
		return c, err
	}
	if c.ParentID, err = r.int64("pid"); err != nil {
		return c, err
	}
	return c, nil
}

// CreatedChannel is the row returned by channelcreate.
type CreatedChannel struct {
	ID int64
}

func decodeCreatedChannel(r record) (CreatedChannel, error) {
	id, err := r.int64("cid")
	if err != nil {
		return CreatedChannel{}, err
	}
	return CreatedChannel{ID: id}, nil
}

func decodeDatabaseID(r record) (int64, error) {
	return r.int64("cldbid")
}

// ClientInfo is the detailed per-client view fetched by the mute porter.
type ClientInfo struct {
	InputMuted  bool
	OutputMuted bool
}

// Muted reports whether the client has microphone or speakers muted.
func (i ClientInfo) Muted() bool {
	return i.InputMuted || i.OutputMuted
}

func decodeClientInfo(r record) (ClientInfo, error) {
	var (
		i   ClientInfo
		err error
	)
	if i.InputMuted, err = r.flag("client_input_muted"); err != nil {
		return i, err
	}
	if i.OutputMuted, err = r.flag("client_output_muted"); err != nil {
		return i, err
	}
	return i, nil
}

// Permission is one permid/permvalue pair for channeladdperm.
type Permission struct {
	ID    int64
	Value int64
}
