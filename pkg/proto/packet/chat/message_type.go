// Package chat implements the chat packets, whose wire layout changed
// with nearly every protocol generation: plain positioned messages
// before 1.19, keyed signing in 1.19-1.19.2 and session signing from
// 1.19.3 on.
package chat

// MessageType is the position a message is displayed at.
type MessageType byte

const (
	// ChatMessageType is a standard chat message and
	// lets the server add message of the sender to display.
	ChatMessageType MessageType = iota
	// SystemMessageType is a system chat message.
	SystemMessageType
	// GameInfoMessageType is displayed above the action bar.
	GameInfoMessageType
)

// MaxServerBoundMessageLength is the maximum length
// of a serverbound chat message.
const MaxServerBoundMessageLength = 256
