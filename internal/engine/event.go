package engine

// ClientUpdate is the basic client view delivered by server
// notifications: who moved and where they are now.
type ClientUpdate struct {
	ClientID  int64
	ChannelID int64
}

// Event is an instruction injected into a running engine. It is a
// closed sum; the loop switches exhaustively over the variants below.
type Event interface {
	isEvent()
}

type updateEvent struct {
	Info ClientUpdate
}

type deleteChannelEvent struct {
	Requester int64
	UID       string
}

type refreshEvent struct{}

type terminateEvent struct{}

func (updateEvent) isEvent()        {}
func (deleteChannelEvent) isEvent() {}
func (refreshEvent) isEvent()       {}
func (terminateEvent) isEvent()     {}
