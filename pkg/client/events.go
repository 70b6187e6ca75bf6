package client

import (
	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// Event is a connection lifecycle or chat event delivered on the
// connection's event channel in arrival order.
type Event interface{ event() }

// ConnectedEvent fires once the login phase completed and the
// connection entered configuration or play.
type ConnectedEvent struct {
	Username string
	ID       uuid.UUID
}

// ChatEvent is a chat or system message readied for display.
type ChatEvent struct {
	// Runs is the styled flattened form, Plain the style-less text.
	Runs  []chat.Run
	Plain string
	// System is true for messages without a player sender.
	System     bool
	Sender     uuid.UUID
	SenderName string
}

// StateEvent fires on a connection state transition.
type StateEvent struct {
	State State
}

// ErrorEvent surfaces a non-fatal error, e.g. a packet that failed to
// decode or a handler reaction that failed. The connection stays up.
type ErrorEvent struct {
	Err error
}

// DisconnectEvent carries the server's disconnect reason, if the
// server sent one before the connection closed.
type DisconnectEvent struct {
	Reason *chat.Component
}

// ClosedEvent is the last event on the channel; the channel is closed
// right after it.
type ClosedEvent struct {
	Err error // nil on clean close
}

func (ConnectedEvent) event()  {}
func (ChatEvent) event()       {}
func (StateEvent) event()      {}
func (ErrorEvent) event()      {}
func (DisconnectEvent) event() {}
func (ClosedEvent) event()     {}
