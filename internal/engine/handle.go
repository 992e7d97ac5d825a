package engine

import "slices"

// Handle lets other goroutines inject events into a running engine
// without touching its connection. A zero Handle is valid but inert:
// every send reports "not delivered".
type Handle struct {
	channels []int64
	events   chan<- Event
}

// NewHandle builds a handle over the monitored channel set. A nil
// events channel produces an unbound handle whose sends are no-ops.
func NewHandle(channels []int64, events chan<- Event) Handle {
	return Handle{channels: channels, events: events}
}

// Valid reports whether the handle is wired to a live engine.
func (h Handle) Valid() bool {
	return h.events != nil
}

// SendTerminate asks the engine to shut down gracefully.
func (h Handle) SendTerminate() bool {
	return h.trySend(terminateEvent{})
}

// SendDelete asks the engine to forget a client's provisioned
// channels and acknowledge the requester.
func (h Handle) SendDelete(requester int64, uid string) bool {
	return h.trySend(deleteChannelEvent{Requester: requester, UID: uid})
}

// Send routes a client update: activity inside a monitored channel
// becomes an update event, anything else only requests a refresh on
// the next timer tick.
func (h Handle) Send(info ClientUpdate) bool {
	if h.events == nil {
		return false
	}
	if !slices.Contains(h.channels, info.ChannelID) {
		h.trySend(refreshEvent{})
		return false
	}
	return h.trySend(updateEvent{Info: info})
}

func (h Handle) trySend(ev Event) bool {
	if h.events == nil {
		return false
	}
	select {
	case h.events <- ev:
		return true
	default:
		return false
	}
}
