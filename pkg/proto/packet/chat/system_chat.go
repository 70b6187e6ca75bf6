package chat

import (
	"io"

	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/proto/version"
)

// SystemChat is the clientbound system message of 1.19+. 1.19 carries a
// varint message type; 1.19.1+ collapsed it to an action-bar overlay
// boolean.
type SystemChat struct {
	Component *chat.ComponentHolder
	Type      MessageType
}

func (p *SystemChat) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := p.Component.Write(wr, c.Protocol)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19_1) {
		return util.WriteBool(wr, p.Type == GameInfoMessageType)
	}
	return util.WriteVarInt(wr, int(p.Type))
}

func (p *SystemChat) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.Component, err = chat.ReadComponentHolder(rd, c.Protocol)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19_1) {
		overlay, err := util.ReadBool(rd)
		if err != nil {
			return err
		}
		p.Type = SystemMessageType
		if overlay {
			p.Type = GameInfoMessageType
		}
		return nil
	}
	typ, err := util.ReadVarInt(rd)
	p.Type = MessageType(typ)
	return err
}

var _ proto.Packet = (*SystemChat)(nil)
