package packet

import (
	"errors"
	"io"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
)

// BrandChannel is the channel the client announces its brand on.
const BrandChannel = "minecraft:brand"

// PluginMessage carries a custom payload on a named channel. Used in
// both the configuration and play states.
type PluginMessage struct {
	Channel string
	Data    []byte
}

func (p *PluginMessage) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, p.Channel)
	if err != nil {
		return err
	}
	return util.WriteRawBytes(wr, p.Data)
}

func (p *PluginMessage) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.Channel, err = util.ReadStringMax(rd, 128)
	if err != nil {
		return err
	}
	p.Data, err = util.ReadRawBytes(rd)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return
}

var _ proto.Packet = (*PluginMessage)(nil)
