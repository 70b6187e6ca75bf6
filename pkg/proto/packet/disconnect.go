package packet

import (
	"io"

	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
)

// Disconnect terminates the connection in the configuration or play
// state. The reason follows the protocol's component encoding.
type Disconnect struct {
	Reason *chat.ComponentHolder
}

func (d *Disconnect) Encode(c *proto.PacketContext, wr io.Writer) error {
	reason := d.Reason
	if reason == nil {
		reason = &chat.ComponentHolder{Component: &chat.Component{}}
	}
	return reason.Write(wr, c.Protocol)
}

func (d *Disconnect) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	d.Reason, err = chat.ReadComponentHolder(rd, c.Protocol)
	return
}

// DisconnectLogin terminates the connection in the login state. Its
// reason stays a JSON string on every version, unlike Disconnect.
type DisconnectLogin struct {
	Reason *chat.ComponentHolder
}

func (d *DisconnectLogin) Encode(_ *proto.PacketContext, wr io.Writer) error {
	j := []byte(`{"text":""}`)
	if d.Reason != nil {
		if d.Reason.JSON != nil {
			j = d.Reason.JSON
		} else if b, err := d.Reason.Component.MarshalJSON(); err == nil {
			j = b
		}
	}
	return util.WriteString(wr, string(j))
}

func (d *DisconnectLogin) Decode(_ *proto.PacketContext, rd io.Reader) error {
	j, err := util.ReadString(rd)
	if err != nil {
		return err
	}
	comp, err := chat.FromJSON([]byte(j))
	if err != nil {
		return err
	}
	d.Reason = &chat.ComponentHolder{Component: comp, JSON: []byte(j)}
	return nil
}

var (
	_ proto.Packet = (*Disconnect)(nil)
	_ proto.Packet = (*DisconnectLogin)(nil)
)
