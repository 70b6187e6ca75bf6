package packet

import (
	"errors"
	"io"

	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/proto/version"
)

// Respawn carries heavy per-version world state the chat client has no
// use for; the payload is kept opaque and only its arrival matters.
type Respawn struct {
	Data []byte
}

func (r *Respawn) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, r.Data)
}

func (r *Respawn) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	r.Data, err = util.ReadRawBytes(rd)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return
}

// JoinGame is treated the same way: an opaque marker that the play
// state has fully started.
type JoinGame struct {
	Data []byte
}

func (j *JoinGame) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, j.Data)
}

func (j *JoinGame) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	j.Data, err = util.ReadRawBytes(rd)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return
}

// OpenScreen opens a server-side window. The client answers every one
// with a CloseWindow since no inventory surface exists.
type OpenScreen struct {
	WindowID int
	Type     int
	Title    *chat.ComponentHolder
}

func (o *OpenScreen) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteVarInt(wr, o.WindowID)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, o.Type)
	if err != nil {
		return err
	}
	title := o.Title
	if title == nil {
		title = &chat.ComponentHolder{Component: &chat.Component{}}
	}
	return title.Write(wr, c.Protocol)
}

func (o *OpenScreen) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	o.WindowID, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	o.Type, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	o.Title, err = chat.ReadComponentHolder(rd, c.Protocol)
	return
}

// CloseWindow closes a window. The window id was an unsigned byte until
// 1.21.2 turned it into a varint.
type CloseWindow struct {
	WindowID int
}

func (p *CloseWindow) Encode(c *proto.PacketContext, wr io.Writer) error {
	if c.Protocol.GreaterEqual(version.Minecraft_1_21_2) {
		return util.WriteVarInt(wr, p.WindowID)
	}
	return util.WriteUint8(wr, uint8(p.WindowID))
}

func (p *CloseWindow) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	if c.Protocol.GreaterEqual(version.Minecraft_1_21_2) {
		p.WindowID, err = util.ReadVarInt(rd)
		return
	}
	id, err := util.ReadUint8(rd)
	p.WindowID = int(id)
	return
}

// Combat events of the pre-1.17 combined combat packet.
const (
	EnterCombatEvent = 0
	EndCombatEvent   = 1
	EntityDeadEvent  = 2
)

// CombatDeath reports the player's death with a death message.
//
// Until 1.17 this is the combined combat event packet with a leading
// event discriminator; only EntityDeadEvent carries the fields below
// and other events keep their payload in Tail.
type CombatDeath struct {
	Event    int // pre-1.17 only
	Tail     []byte
	PlayerID int
	KillerID int32 // removed in 1.20
	Message  *chat.ComponentHolder
}

// Died indicates the packet is an actual death report.
func (p *CombatDeath) Died(c *proto.PacketContext) bool {
	return c.Protocol.GreaterEqual(version.Minecraft_1_17) || p.Event == EntityDeadEvent
}

func (p *CombatDeath) Encode(c *proto.PacketContext, wr io.Writer) error {
	if c.Protocol.Lower(version.Minecraft_1_17) {
		err := util.WriteVarInt(wr, p.Event)
		if err != nil {
			return err
		}
		if p.Event != EntityDeadEvent {
			return util.WriteRawBytes(wr, p.Tail)
		}
	}
	err := util.WriteVarInt(wr, p.PlayerID)
	if err != nil {
		return err
	}
	if c.Protocol.Lower(version.Minecraft_1_20) {
		err = util.WriteInt32(wr, p.KillerID)
		if err != nil {
			return err
		}
	}
	msg := p.Message
	if msg == nil {
		msg = &chat.ComponentHolder{Component: &chat.Component{}}
	}
	return msg.Write(wr, c.Protocol)
}

func (p *CombatDeath) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	if c.Protocol.Lower(version.Minecraft_1_17) {
		p.Event, err = util.ReadVarInt(rd)
		if err != nil {
			return err
		}
		if p.Event != EntityDeadEvent {
			p.Tail, err = util.ReadRawBytes(rd)
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return err
		}
	}
	p.PlayerID, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	if c.Protocol.Lower(version.Minecraft_1_20) {
		p.KillerID, err = util.ReadInt32(rd)
		if err != nil {
			return err
		}
	}
	p.Message, err = chat.ReadComponentHolder(rd, c.Protocol)
	return
}

// UpdateHealth reports current health, food and saturation.
type UpdateHealth struct {
	Health     float32
	Food       int
	Saturation float32
}

func (p *UpdateHealth) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteFloat32(wr, p.Health)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, p.Food)
	if err != nil {
		return err
	}
	return util.WriteFloat32(wr, p.Saturation)
}

func (p *UpdateHealth) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.Health, err = util.ReadFloat32(rd)
	if err != nil {
		return err
	}
	p.Food, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	p.Saturation, err = util.ReadFloat32(rd)
	return
}

// ClientStatus actions.
const (
	PerformRespawnAction = 0
	RequestStatsAction   = 1
)

// ClientStatus requests a respawn or the stats screen.
type ClientStatus struct {
	Action int
}

func (p *ClientStatus) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteVarInt(wr, p.Action)
}

func (p *ClientStatus) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.Action, err = util.ReadVarInt(rd)
	return
}

var (
	_ proto.Packet = (*Respawn)(nil)
	_ proto.Packet = (*JoinGame)(nil)
	_ proto.Packet = (*OpenScreen)(nil)
	_ proto.Packet = (*CloseWindow)(nil)
	_ proto.Packet = (*CombatDeath)(nil)
	_ proto.Packet = (*UpdateHealth)(nil)
	_ proto.Packet = (*ClientStatus)(nil)
)
