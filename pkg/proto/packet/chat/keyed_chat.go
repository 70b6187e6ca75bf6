package chat

import (
	"io"
	"time"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/errs"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// KeyedPlayerChat is the serverbound chat of 1.19 through 1.19.2. This
// client sends only the unsigned form: zero salt, empty signature and
// no previous messages.
type KeyedPlayerChat struct {
	Message       string
	Timestamp     time.Time
	Salt          int64
	Signature     []byte
	SignedPreview bool
	// 1.19.1+: previous message signature pairs, sender uuid + signature.
	PreviousMessages []SignaturePair
	LastMessage      *SignaturePair
}

var _ proto.Packet = (*KeyedPlayerChat)(nil)

const maxPreviousMessageCount = 5

var errTooManyPreviousMessages = errs.NewSilentErr("too many previous messages")

func (p *KeyedPlayerChat) Encode(c *proto.PacketContext, wr io.Writer) error {
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
	err = util.WriteBytes(wr, p.Signature)
	if err != nil {
		return err
	}
	err = util.WriteBool(wr, p.SignedPreview)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19_1) {
		err = util.WriteVarInt(wr, len(p.PreviousMessages))
		if err != nil {
			return err
		}
		for i := range p.PreviousMessages {
			if err = p.PreviousMessages[i].Encode(c, wr); err != nil {
				return err
			}
		}
		err = util.WriteBool(wr, p.LastMessage != nil)
		if err != nil {
			return err
		}
		if p.LastMessage != nil {
			return p.LastMessage.Encode(c, wr)
		}
	}
	return nil
}

func (p *KeyedPlayerChat) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
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
	p.Signature, err = util.ReadBytes(rd)
	if err != nil {
		return err
	}
	p.SignedPreview, err = util.ReadBool(rd)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19_1) {
		size, err := util.ReadVarInt(rd)
		if err != nil {
			return err
		}
		if size < 0 || size > maxPreviousMessageCount {
			return errTooManyPreviousMessages
		}
		p.PreviousMessages = make([]SignaturePair, size)
		for i := range p.PreviousMessages {
			if err = p.PreviousMessages[i].Decode(c, rd); err != nil {
				return err
			}
		}
		ok, err := util.ReadBool(rd)
		if err != nil {
			return err
		}
		if ok {
			p.LastMessage = new(SignaturePair)
			return p.LastMessage.Decode(c, rd)
		}
	}
	return nil
}

// KeyedPlayerCommand is the serverbound chat command of 1.19-1.19.2,
// sent with no argument signatures.
type KeyedPlayerCommand struct {
	Command          string
	Timestamp        time.Time
	Salt             int64
	SignedPreview    bool
	PreviousMessages []SignaturePair
	LastMessage      *SignaturePair
}

var _ proto.Packet = (*KeyedPlayerCommand)(nil)

func (p *KeyedPlayerCommand) Encode(c *proto.PacketContext, wr io.Writer) error {
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
	// argument signature count
	err = util.WriteVarInt(wr, 0)
	if err != nil {
		return err
	}
	err = util.WriteBool(wr, p.SignedPreview)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19_1) {
		err = util.WriteVarInt(wr, len(p.PreviousMessages))
		if err != nil {
			return err
		}
		for i := range p.PreviousMessages {
			if err = p.PreviousMessages[i].Encode(c, wr); err != nil {
				return err
			}
		}
		err = util.WriteBool(wr, p.LastMessage != nil)
		if err != nil {
			return err
		}
		if p.LastMessage != nil {
			return p.LastMessage.Encode(c, wr)
		}
	}
	return nil
}

func (p *KeyedPlayerCommand) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
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
	for i := 0; i < count; i++ {
		if _, err = util.ReadString(rd); err != nil {
			return err
		}
		if _, err = util.ReadBytes(rd); err != nil {
			return err
		}
	}
	p.SignedPreview, err = util.ReadBool(rd)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19_1) {
		size, err := util.ReadVarInt(rd)
		if err != nil {
			return err
		}
		if size < 0 || size > maxPreviousMessageCount {
			return errTooManyPreviousMessages
		}
		p.PreviousMessages = make([]SignaturePair, size)
		for i := range p.PreviousMessages {
			if err = p.PreviousMessages[i].Decode(c, rd); err != nil {
				return err
			}
		}
		ok, err := util.ReadBool(rd)
		if err != nil {
			return err
		}
		if ok {
			p.LastMessage = new(SignaturePair)
			return p.LastMessage.Decode(c, rd)
		}
	}
	return nil
}

// SignaturePair is a sender uuid with the signature of their last
// message.
type SignaturePair struct {
	Sender    uuid.UUID
	Signature []byte
}

var _ proto.Packet = (*SignaturePair)(nil)

func (s *SignaturePair) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteUUID(wr, s.Sender)
	if err != nil {
		return err
	}
	return util.WriteBytes(wr, s.Signature)
}

func (s *SignaturePair) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Sender, err = util.ReadUUID(rd)
	if err != nil {
		return err
	}
	s.Signature, err = util.ReadBytes(rd)
	return
}
