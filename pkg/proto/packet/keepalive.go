package packet

import (
	"io"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
)

// KeepAlive must be echoed back with the same id within the server's
// idle window. Used in both the configuration and play states.
type KeepAlive struct {
	RandomID int64
}

func (k *KeepAlive) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt64(wr, k.RandomID)
}

func (k *KeepAlive) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	k.RandomID, err = util.ReadInt64(rd)
	return
}

// Ping is answered with a Pong carrying the same id. The server uses it
// to fence state transitions.
type Ping struct {
	ID int32
}

func (p *Ping) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt32(wr, p.ID)
}

func (p *Ping) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.ID, err = util.ReadInt32(rd)
	return
}

type Pong struct {
	ID int32
}

func (p *Pong) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt32(wr, p.ID)
}

func (p *Pong) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.ID, err = util.ReadInt32(rd)
	return
}

var (
	_ proto.Packet = (*KeepAlive)(nil)
	_ proto.Packet = (*Ping)(nil)
	_ proto.Packet = (*Pong)(nil)
)
