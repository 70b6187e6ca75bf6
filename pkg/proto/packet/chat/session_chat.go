package chat

import (
	"io"
	"time"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
)

// SessionPlayerChat is the serverbound chat of 1.19.3+. Unsigned
// messages carry Signed=false, zero salt and an empty acknowledgement
// block.
type SessionPlayerChat struct {
	Message          string
	Timestamp        time.Time
	Salt             int64
	Signed           bool
	Signature        []byte // 256 bytes when signed
	LastSeenMessages LastSeenMessages
}

var _ proto.Packet = (*SessionPlayerChat)(nil)

func (p *SessionPlayerChat) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, p.Message)
	if err != nil {
		return err
	}
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	err = util.WriteInt64(wr, ts.UnixMilli())
	if err != nil {
		return err
	}
	err = util.WriteInt64(wr, p.Salt)
	if err != nil {
		return err
	}
	err = util.WriteBool(wr, p.Signed)
	if err != nil {
		return err
	}
	if p.Signed {
		if _, err = wr.Write(p.Signature); err != nil {
			return err
		}
	}
	return p.LastSeenMessages.Encode(c, wr)
}

func (p *SessionPlayerChat) Decode(c *proto.PacketContext, rd io.Reader) error {
	var err error
	p.Message, err = util.ReadStringMax(rd, MaxServerBoundMessageLength)
	if err != nil {
		return err
	}
	ts, err := util.ReadInt64(rd)
	if err != nil {
		return err
	}
	p.Timestamp = time.UnixMilli(ts)
	p.Salt, err = util.ReadInt64(rd)
	if err != nil {
		return err
	}
	p.Signed, err = util.ReadBool(rd)
	if err != nil {
		return err
	}
	if p.Signed {
		p.Signature = make([]byte, messageSignatureBytes)
		if _, err = io.ReadFull(rd, p.Signature); err != nil {
			return err
		}
	} else {
		p.Signature = nil
	}
	return p.LastSeenMessages.Decode(c, rd)
}

// SessionPlayerCommand is the signed serverbound chat command of
// 1.19.3+, sent with an empty signature list.
type SessionPlayerCommand struct {
	Command          string
	Timestamp        time.Time
	Salt             int64
	Signatures       []ArgumentSignature
	LastSeenMessages LastSeenMessages
}

var _ proto.Packet = (*SessionPlayerCommand)(nil)

func (p *SessionPlayerCommand) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, p.Command)
	if err != nil {
		return err
	}
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	err = util.WriteInt64(wr, ts.UnixMilli())
	if err != nil {
		return err
	}
	err = util.WriteInt64(wr, p.Salt)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, len(p.Signatures))
	if err != nil {
		return err
	}
	for i := range p.Signatures {
		if err = p.Signatures[i].Encode(c, wr); err != nil {
			return err
		}
	}
	return p.LastSeenMessages.Encode(c, wr)
}

func (p *SessionPlayerCommand) Decode(c *proto.PacketContext, rd io.Reader) error {
	var err error
	p.Command, err = util.ReadStringMax(rd, MaxServerBoundMessageLength)
	if err != nil {
		return err
	}
	ts, err := util.ReadInt64(rd)
	if err != nil {
		return err
	}
	p.Timestamp = time.UnixMilli(ts)
	p.Salt, err = util.ReadInt64(rd)
	if err != nil {
		return err
	}
	count, err := util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	const limit = 8
	if count > limit {
		return errTooManyPreviousMessages
	}
	p.Signatures = make([]ArgumentSignature, count)
	for i := range p.Signatures {
		if err = p.Signatures[i].Decode(c, rd); err != nil {
			return err
		}
	}
	return p.LastSeenMessages.Decode(c, rd)
}

// UnsignedPlayerCommand is the unsigned command packet split out in
// 1.20.5.
type UnsignedPlayerCommand struct {
	Command string
}

var _ proto.Packet = (*UnsignedPlayerCommand)(nil)

func (p *UnsignedPlayerCommand) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteString(wr, p.Command)
}

func (p *UnsignedPlayerCommand) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.Command, err = util.ReadStringMax(rd, MaxServerBoundMessageLength)
	return
}

const messageSignatureBytes = 256

// ArgumentSignature signs one command argument.
type ArgumentSignature struct {
	Name      string
	Signature []byte // always 256 bytes
}

var _ proto.Packet = (*ArgumentSignature)(nil)

func (a *ArgumentSignature) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, a.Name)
	if err != nil {
		return err
	}
	_, err = wr.Write(a.Signature)
	return err
}

func (a *ArgumentSignature) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	a.Name, err = util.ReadStringMax(rd, 16)
	if err != nil {
		return err
	}
	a.Signature = make([]byte, messageSignatureBytes)
	_, err = io.ReadFull(rd, a.Signature)
	return err
}
