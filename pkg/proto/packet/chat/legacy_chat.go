package chat

import (
	"io"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// LegacyChat is the single chat packet of versions below 1.19: a JSON
// component string clientbound, a plain message serverbound.
type LegacyChat struct {
	Message string
	Type    MessageType
	Sender  uuid.UUID // may be all zeros
}

var _ proto.Packet = (*LegacyChat)(nil)

func (ch *LegacyChat) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, ch.Message)
	if err != nil {
		return err
	}
	if c.Direction == proto.ClientBound {
		err = util.WriteByte(wr, byte(ch.Type))
		if err != nil {
			return err
		}
		err = util.WriteUUID(wr, ch.Sender)
	}
	return err
}

func (ch *LegacyChat) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	max := MaxServerBoundMessageLength
	if c.Direction == proto.ClientBound {
		max = 262144
	}
	ch.Message, err = util.ReadStringMax(rd, max)
	if err != nil {
		return err
	}
	if c.Direction == proto.ClientBound {
		var pos byte
		pos, err = util.ReadByte(rd)
		if err != nil {
			return err
		}
		ch.Type = MessageType(pos)
		ch.Sender, err = util.ReadUUID(rd)
	}
	return
}
