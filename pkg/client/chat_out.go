package client

import (
	"fmt"
	"strings"

	pchat "go.craftchat.dev/craftchat/pkg/proto/packet/chat"
	"go.craftchat.dev/craftchat/pkg/proto/version"
)

// SendMessage sends a chat message to the server, picking the chat
// packet the connection's protocol expects. Messages are always sent
// unsigned; servers with enforce-secure-profile enabled will reject
// them.
func (c *Conn) SendMessage(msg string) error {
	if len(msg) > pchat.MaxServerBoundMessageLength {
		return fmt.Errorf("message longer than %d characters", pchat.MaxServerBoundMessageLength)
	}
	if strings.HasPrefix(msg, "/") {
		return c.SendCommand(msg[1:])
	}
	protocol := c.Protocol()
	switch {
	case protocol.Lower(version.Minecraft_1_19):
		return c.WritePacket(&pchat.LegacyChat{Message: msg})
	case protocol.Lower(version.Minecraft_1_19_3):
		return c.WritePacket(&pchat.KeyedPlayerChat{Message: msg})
	default:
		return c.WritePacket(&pchat.SessionPlayerChat{Message: msg})
	}
}

// SendCommand sends a chat command without the leading slash.
func (c *Conn) SendCommand(cmd string) error {
	cmd = strings.TrimPrefix(cmd, "/")
	if len(cmd) > pchat.MaxServerBoundMessageLength {
		return fmt.Errorf("command longer than %d characters", pchat.MaxServerBoundMessageLength)
	}
	protocol := c.Protocol()
	switch {
	case protocol.Lower(version.Minecraft_1_19):
		return c.WritePacket(&pchat.LegacyChat{Message: "/" + cmd})
	case protocol.Lower(version.Minecraft_1_19_3):
		return c.WritePacket(&pchat.KeyedPlayerCommand{Command: cmd})
	case protocol.Lower(version.Minecraft_1_20_5):
		return c.WritePacket(&pchat.SessionPlayerCommand{Command: cmd})
	default:
		return c.WritePacket(&pchat.UnsignedPlayerCommand{Command: cmd})
	}
}
