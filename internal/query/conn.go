package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	readBufferSize = 512
	readTimeout    = 2 * time.Second

	// lineTerminator ends every command and every complete response.
	lineTerminator = "\n\r"
	statusMarker   = "error id="
)

// ErrNoData is returned when the read timeout elapses before a
// response arrives. It signals "try later", not a protocol failure.
var ErrNoData = errors.New("no data received before read timeout")

// Conn owns one ServerQuery TCP connection. The protocol is strictly
// half-duplex request/response: at most one exchange is in flight, so
// a Conn must be driven from a single goroutine.
type Conn struct {
	conn net.Conn
	log  *zerolog.Logger
}

// Dial connects to a ServerQuery endpoint and drains the welcome
// banner the server sends on connect.
func Dial(ctx context.Context, addr string, logger *zerolog.Logger) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := NewConn(nc, logger)
	greeting, ok, err := c.readResponse()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	if !ok {
		c.log.Warn().Str("addr", addr).Msg("no greeting received before timeout")
	} else {
		c.log.Debug().Int("bytes", len(greeting)).Msg("drained server greeting")
	}
	return c, nil
}

// NewConn wraps an established connection. Used by Dial and by tests
// that drive the codec over an in-memory pipe.
func NewConn(nc net.Conn, logger *zerolog.Logger) *Conn {
	return &Conn{conn: nc, log: logger}
}

// Close tears down the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// writeLine sends one command, appending the protocol terminator.
// Write failures are transport errors and fatal to the session.
func (c *Conn) writeLine(cmd string) error {
	payload := []byte(cmd + lineTerminator)
	n, err := c.conn.Write(payload)
	if err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	if n != len(payload) {
		return fmt.Errorf("short write: sent %d of %d bytes", n, len(payload))
	}
	return nil
}

// readResponse accumulates reads until a full response has arrived.
// A response is complete when the buffer contains the status marker
// and ends with the line terminator, or when a short read ends the
// message. A read deadline expiring returns ok=false with no error:
// the caller decides whether to retry or abandon the exchange.
func (c *Conn) readResponse() (string, bool, error) {
	buf := make([]byte, readBufferSize)
	var sb strings.Builder
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return "", false, fmt.Errorf("set read deadline: %w", err)
		}
		n, err := c.conn.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return "", false, nil
			}
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				break
			}
			return "", false, fmt.Errorf("read response: %w", err)
		}
		got := sb.String()
		if n < readBufferSize || (strings.Contains(got, statusMarker) && strings.HasSuffix(got, lineTerminator)) {
			break
		}
	}
	return sb.String(), true, nil
}

// roundTrip performs one half-duplex exchange. The prior read has
// always fully resolved before the next write happens because Conn is
// exclusively owned by its driving goroutine.
func (c *Conn) roundTrip(cmd string) (string, error) {
	if err := c.writeLine(cmd); err != nil {
		return "", err
	}
	data, ok, err := c.readResponse()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoData
	}
	return data, nil
}

// exec runs a command that carries no data rows, checking its status.
func (c *Conn) exec(cmd string) error {
	data, err := c.roundTrip(cmd)
	if err != nil {
		return err
	}
	_, err = decodeStatus(data)
	return err
}
