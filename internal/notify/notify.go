// Package notify queues outbound private messages so the automation
// engine never blocks on message delivery.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Message is one pending private text message.
type Message struct {
	ClientID int64
	Text     string
}

// Sender delivers one private message. The app wires it to the
// dedicated messaging connection's sendtextmessage operation.
type Sender func(ctx context.Context, clientID int64, text string) error

// Queue buffers outbound messages between the engine and the sender
// loop. Delivery is best-effort: failures are logged, never surfaced
// to the enqueuer.
type Queue struct {
	ch  chan Message
	log *zerolog.Logger
}

// NewQueue creates a queue holding up to size pending messages.
func NewQueue(size int, logger *zerolog.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{
		ch:  make(chan Message, size),
		log: logger,
	}
}

// Enqueue adds a message without blocking. It reports false when the
// queue is full and the message was dropped.
func (q *Queue) Enqueue(clientID int64, text string) bool {
	select {
	case q.ch <- Message{ClientID: clientID, Text: text}:
		return true
	default:
		q.log.Warn().Int64("client_id", clientID).Msg("notify queue full, message dropped")
		return false
	}
}

// Run drains the queue through send until ctx is cancelled.
func (q *Queue) Run(ctx context.Context, send Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-q.ch:
			if err := send(ctx, msg.ClientID, msg.Text); err != nil {
				q.log.Error().Err(err).Int64("client_id", msg.ClientID).Msg("send private message")
				continue
			}
			q.log.Debug().Int64("client_id", msg.ClientID).Msg("private message sent")
		}
	}
}
