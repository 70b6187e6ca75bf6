package chat

import (
	"io"
	"time"

	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/errs"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// PlayerChat is the clientbound signed player message of 1.19+. Its
// layout was reshaped in every signing generation; Decode normalizes
// the three of them onto one struct. The client only displays messages,
// so signatures are retained but never verified.
type PlayerChat struct {
	Sender    uuid.UUID
	Index     int    // 1.19.3+
	Signature []byte // may be nil
	Message   string // plain message body (1.19.1+)

	SignedContent   *chat.ComponentHolder // 1.19 only
	UnsignedContent *chat.ComponentHolder // server-decorated override

	Timestamp time.Time
	Salt      int64

	TypeID     int
	SenderName *chat.ComponentHolder
	TargetName *chat.ComponentHolder
}

var _ proto.Packet = (*PlayerChat)(nil)

var errInlineChatType = errs.NewSilentErr("inline chat type definitions are not supported")

func (p *PlayerChat) Decode(c *proto.PacketContext, rd io.Reader) error {
	switch {
	case c.Protocol.GreaterEqual(version.Minecraft_1_19_3):
		return p.decodeSession(c, rd)
	case c.Protocol.GreaterEqual(version.Minecraft_1_19_1):
		return p.decodeKeyed(c, rd)
	default:
		return p.decodeInitial(c, rd)
	}
}

func (p *PlayerChat) Encode(c *proto.PacketContext, wr io.Writer) error {
	switch {
	case c.Protocol.GreaterEqual(version.Minecraft_1_19_3):
		return p.encodeSession(c, wr)
	case c.Protocol.GreaterEqual(version.Minecraft_1_19_1):
		return p.encodeKeyed(c, wr)
	default:
		return p.encodeInitial(c, wr)
	}
}

// DisplayedContent is the component the chat screen shows: the server's
// decorated override when present, the signed body otherwise.
func (p *PlayerChat) DisplayedContent() *chat.ComponentHolder {
	if p.UnsignedContent != nil {
		return p.UnsignedContent
	}
	if p.SignedContent != nil {
		return p.SignedContent
	}
	return &chat.ComponentHolder{Component: &chat.Component{Text: p.Message}}
}

// 1.19 layout: signed component first, type before the sender identity.
func (p *PlayerChat) decodeInitial(c *proto.PacketContext, rd io.Reader) (err error) {
	p.SignedContent, err = chat.ReadComponentHolder(rd, c.Protocol)
	if err != nil {
		return err
	}
	if p.UnsignedContent, err = readOptionalComponent(rd, c); err != nil {
		return err
	}
	p.TypeID, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	p.Sender, err = util.ReadUUID(rd)
	if err != nil {
		return err
	}
	p.SenderName, err = chat.ReadComponentHolder(rd, c.Protocol)
	if err != nil {
		return err
	}
	if p.TargetName, err = readOptionalComponent(rd, c); err != nil {
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
	return err
}

func (p *PlayerChat) encodeInitial(c *proto.PacketContext, wr io.Writer) error {
	signed := p.SignedContent
	if signed == nil {
		signed = &chat.ComponentHolder{Component: &chat.Component{Text: p.Message}}
	}
	err := signed.Write(wr, c.Protocol)
	if err != nil {
		return err
	}
	if err = writeOptionalComponent(wr, c, p.UnsignedContent); err != nil {
		return err
	}
	err = util.WriteVarInt(wr, p.TypeID)
	if err != nil {
		return err
	}
	err = util.WriteUUID(wr, p.Sender)
	if err != nil {
		return err
	}
	err = p.SenderName.Write(wr, c.Protocol)
	if err != nil {
		return err
	}
	if err = writeOptionalComponent(wr, c, p.TargetName); err != nil {
		return err
	}
	err = util.WriteInt64(wr, p.Timestamp.UnixMilli())
	if err != nil {
		return err
	}
	err = util.WriteInt64(wr, p.Salt)
	if err != nil {
		return err
	}
	return util.WriteBytes(wr, p.Signature)
}

// 1.19.1/1.19.2 layout: header signatures and the plain body moved to
// the front, filter mask introduced.
func (p *PlayerChat) decodeKeyed(c *proto.PacketContext, rd io.Reader) (err error) {
	hasPreceding, err := util.ReadBool(rd)
	if err != nil {
		return err
	}
	if hasPreceding {
		if _, err = util.ReadBytes(rd); err != nil {
			return err
		}
	}
	p.Sender, err = util.ReadUUID(rd)
	if err != nil {
		return err
	}
	p.Signature, err = util.ReadBytes(rd)
	if err != nil {
		return err
	}
	p.Message, err = util.ReadStringMax(rd, MaxServerBoundMessageLength)
	if err != nil {
		return err
	}
	if p.SignedContent, err = readOptionalComponent(rd, c); err != nil {
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
		var pair SignaturePair
		if err = pair.Decode(c, rd); err != nil {
			return err
		}
	}
	if p.UnsignedContent, err = readOptionalComponent(rd, c); err != nil {
		return err
	}
	if err = skipFilterMask(rd); err != nil {
		return err
	}
	p.TypeID, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	p.SenderName, err = chat.ReadComponentHolder(rd, c.Protocol)
	if err != nil {
		return err
	}
	p.TargetName, err = readOptionalComponent(rd, c)
	return err
}

func (p *PlayerChat) encodeKeyed(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteBool(wr, false) // no preceding signature
	if err != nil {
		return err
	}
	err = util.WriteUUID(wr, p.Sender)
	if err != nil {
		return err
	}
	err = util.WriteBytes(wr, p.Signature)
	if err != nil {
		return err
	}
	err = util.WriteString(wr, p.Message)
	if err != nil {
		return err
	}
	if err = writeOptionalComponent(wr, c, p.SignedContent); err != nil {
		return err
	}
	err = util.WriteInt64(wr, p.Timestamp.UnixMilli())
	if err != nil {
		return err
	}
	err = util.WriteInt64(wr, p.Salt)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, 0) // no previous messages
	if err != nil {
		return err
	}
	if err = writeOptionalComponent(wr, c, p.UnsignedContent); err != nil {
		return err
	}
	err = util.WriteVarInt(wr, 0) // filter mask: pass through
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, p.TypeID)
	if err != nil {
		return err
	}
	err = p.SenderName.Write(wr, c.Protocol)
	if err != nil {
		return err
	}
	return writeOptionalComponent(wr, c, p.TargetName)
}

// 1.19.3+ layout: session index, fixed-size signatures, chat type as a
// registry holder since 1.20.5.
func (p *PlayerChat) decodeSession(c *proto.PacketContext, rd io.Reader) (err error) {
	if c.Protocol.GreaterEqual(version.Minecraft_1_21_2) {
		// global index prefix
		if _, err = util.ReadVarInt(rd); err != nil {
			return err
		}
	}
	p.Sender, err = util.ReadUUID(rd)
	if err != nil {
		return err
	}
	p.Index, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	hasSignature, err := util.ReadBool(rd)
	if err != nil {
		return err
	}
	if hasSignature {
		p.Signature = make([]byte, messageSignatureBytes)
		if _, err = io.ReadFull(rd, p.Signature); err != nil {
			return err
		}
	}
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
	count, err := util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		id, err := util.ReadVarInt(rd)
		if err != nil {
			return err
		}
		if id == 0 {
			sig := make([]byte, messageSignatureBytes)
			if _, err = io.ReadFull(rd, sig); err != nil {
				return err
			}
		}
	}
	if p.UnsignedContent, err = readOptionalComponent(rd, c); err != nil {
		return err
	}
	if err = skipFilterMask(rd); err != nil {
		return err
	}
	p.TypeID, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		// holder: 0 = inline definition, otherwise registry id + 1
		if p.TypeID == 0 {
			return errInlineChatType
		}
		p.TypeID--
	}
	p.SenderName, err = chat.ReadComponentHolder(rd, c.Protocol)
	if err != nil {
		return err
	}
	p.TargetName, err = readOptionalComponent(rd, c)
	return err
}

func (p *PlayerChat) encodeSession(c *proto.PacketContext, wr io.Writer) error {
	if c.Protocol.GreaterEqual(version.Minecraft_1_21_2) {
		if err := util.WriteVarInt(wr, 0); err != nil {
			return err
		}
	}
	err := util.WriteUUID(wr, p.Sender)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, p.Index)
	if err != nil {
		return err
	}
	err = util.WriteBool(wr, p.Signature != nil)
	if err != nil {
		return err
	}
	if p.Signature != nil {
		if _, err = wr.Write(p.Signature); err != nil {
			return err
		}
	}
	err = util.WriteString(wr, p.Message)
	if err != nil {
		return err
	}
	err = util.WriteInt64(wr, p.Timestamp.UnixMilli())
	if err != nil {
		return err
	}
	err = util.WriteInt64(wr, p.Salt)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, 0) // no previous messages
	if err != nil {
		return err
	}
	if err = writeOptionalComponent(wr, c, p.UnsignedContent); err != nil {
		return err
	}
	err = util.WriteVarInt(wr, 0) // filter mask: pass through
	if err != nil {
		return err
	}
	typeID := p.TypeID
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		typeID++
	}
	err = util.WriteVarInt(wr, typeID)
	if err != nil {
		return err
	}
	err = p.SenderName.Write(wr, c.Protocol)
	if err != nil {
		return err
	}
	return writeOptionalComponent(wr, c, p.TargetName)
}

func readOptionalComponent(rd io.Reader, c *proto.PacketContext) (*chat.ComponentHolder, error) {
	ok, err := util.ReadBool(rd)
	if err != nil || !ok {
		return nil, err
	}
	return chat.ReadComponentHolder(rd, c.Protocol)
}

func writeOptionalComponent(wr io.Writer, c *proto.PacketContext, h *chat.ComponentHolder) error {
	err := util.WriteBool(wr, h != nil)
	if err != nil || h == nil {
		return err
	}
	return h.Write(wr, c.Protocol)
}

// skipFilterMask discards the filter mask: type 2 (partially filtered)
// carries a long-array bitset.
func skipFilterMask(rd io.Reader) error {
	typ, err := util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	if typ == 2 {
		n, err := util.ReadVarInt(rd)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if _, err = util.ReadInt64(rd); err != nil {
				return err
			}
		}
	}
	return nil
}
