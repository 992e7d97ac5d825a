package query

import (
	"fmt"
	"strings"
)

// queryRows runs a command and decodes every row of its result body.
func queryRows[T any](c *Conn, cmd string, dec func(record) (T, error)) ([]T, error) {
	data, err := c.roundTrip(cmd)
	if err != nil {
		return nil, err
	}
	body, err := decodeStatus(data)
	if err != nil {
		return nil, err
	}
	return decodeRows(body, dec)
}

// queryFirst runs a command and decodes the first row of its result body.
func queryFirst[T any](c *Conn, cmd string, dec func(record) (T, error)) (T, error) {
	var zero T
	data, err := c.roundTrip(cmd)
	if err != nil {
		return zero, err
	}
	body, err := decodeStatus(data)
	if err != nil {
		return zero, err
	}
	return decodeFirst(body, dec)
}

// Login authenticates the query session.
func (c *Conn) Login(user, password string) error {
	return c.exec(fmt.Sprintf("login %s %s", Escape(user), Escape(password)))
}

// SelectServer binds the session to one virtual server.
func (c *Conn) SelectServer(serverID int64) error {
	return c.exec(fmt.Sprintf("use %d", serverID))
}

// WhoAmI resolves the session's own client and database ids.
func (c *Conn) WhoAmI() (WhoAmI, error) {
	return queryFirst(c, "whoami", decodeWhoAmI)
}

// ServerInfo fetches the selected virtual server's identity.
func (c *Conn) ServerInfo() (ServerInfo, error) {
	return queryFirst(c, "serverinfo", decodeServerInfo)
}

// Clients enumerates currently connected clients.
func (c *Conn) Clients() ([]Client, error) {
	return queryRows(c, "clientlist", decodeClient)
}

// Channels enumerates the server's channel tree.
func (c *Conn) Channels() ([]Channel, error) {
	return queryRows(c, "channellist", decodeChannel)
}

// CreateChannel creates a permanent channel under the given parent.
func (c *Conn) CreateChannel(name string, parent int64) (CreatedChannel, error) {
	cmd := fmt.Sprintf("channelcreate channel_name=%s cpid=%d channel_codec_quality=10", Escape(name), parent)
	return queryFirst(c, cmd, decodeCreatedChannel)
}

// MoveClient relocates a client into a channel.
func (c *Conn) MoveClient(clientID, channelID int64) error {
	return c.exec(fmt.Sprintf("clientmove clid=%d cid=%d", clientID, channelID))
}

// SetClientChannelGroup assigns a channel group to a client within one channel.
func (c *Conn) SetClientChannelGroup(clientDatabaseID, channelID, groupID int64) error {
	return c.exec(fmt.Sprintf("setclientchannelgroup cgid=%d cid=%d cldbid=%d", groupID, channelID, clientDatabaseID))
}

// AddChannelPermissions applies one or more permission pairs to a channel.
func (c *Conn) AddChannelPermissions(channelID int64, perms []Permission) error {
	pairs := make([]string, 0, len(perms))
	for _, p := range perms {
		pairs = append(pairs, fmt.Sprintf("permid=%d permvalue=%d", p.ID, p.Value))
	}
	return c.exec(fmt.Sprintf("channeladdperm cid=%d %s", channelID, strings.Join(pairs, "|")))
}

// ChangeNickname updates the session's own display name.
func (c *Conn) ChangeNickname(nickname string) error {
	return c.exec(fmt.Sprintf("clientupdate client_nickname=%s", Escape(nickname)))
}

// DatabaseIDFromUID resolves a client unique identifier to its database id.
func (c *Conn) DatabaseIDFromUID(uid string) (int64, error) {
	return queryFirst(c, fmt.Sprintf("clientgetdbidfromuid cluid=%s", Escape(uid)), decodeDatabaseID)
}

// DeleteBan removes a ban entry.
func (c *Conn) DeleteBan(banID int64) error {
	return c.exec(fmt.Sprintf("bandel banid=%d", banID))
}

// ClientInfo fetches the detailed view of one connected client.
func (c *Conn) ClientInfo(clientID int64) (ClientInfo, error) {
	return queryFirst(c, fmt.Sprintf("clientinfo clid=%d", clientID), decodeClientInfo)
}

// RegisterEvents subscribes the session to server, private-text and
// channel notifications. Only one channel subscription is possible per
// session; id 0 covers channel-wide events.
func (c *Conn) RegisterEvents() error {
	for _, cmd := range []string{
		"servernotifyregister event=server",
		"servernotifyregister event=textprivate",
		"servernotifyregister event=channel id=0",
	} {
		if err := c.exec(cmd); err != nil {
			return err
		}
	}
	return nil
}

// SendTextMessage delivers a private text message to a client.
func (c *Conn) SendTextMessage(clientID int64, text string) error {
	return c.exec(fmt.Sprintf("sendtextmessage targetmode=1 target=%d msg=%s", clientID, Escape(text)))
}

// Keepalive issues a lightweight round-trip so the server does not
// drop an idle session.
func (c *Conn) Keepalive() error {
	_, err := c.WhoAmI()
	return err
}

// Logout gracefully ends the query session.
func (c *Conn) Logout() error {
	return c.exec("quit")
}
