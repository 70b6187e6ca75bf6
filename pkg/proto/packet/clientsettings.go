package packet

import (
	"io"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/proto/version"
)

// ClientSettings announces the client's locale and display options.
// Sent in the configuration state (1.20.2+) and on entering play.
type ClientSettings struct {
	Locale         string
	ViewDistance   byte
	ChatVisibility int
	ChatColors     bool
	SkinParts      byte
	MainHand       int
	TextFiltering  bool // 1.17+
	ClientListing  bool // 1.18+, opt out of anonymous server-list mode
	ParticleStatus int  // 1.21.2+
}

func (s *ClientSettings) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, s.Locale)
	if err != nil {
		return err
	}
	err = util.WriteUint8(wr, s.ViewDistance)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, s.ChatVisibility)
	if err != nil {
		return err
	}
	err = util.WriteBool(wr, s.ChatColors)
	if err != nil {
		return err
	}
	err = util.WriteUint8(wr, s.SkinParts)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, s.MainHand)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_17) {
		err = util.WriteBool(wr, s.TextFiltering)
		if err != nil {
			return err
		}
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_18) {
		err = util.WriteBool(wr, s.ClientListing)
		if err != nil {
			return err
		}
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_21_2) {
		err = util.WriteVarInt(wr, s.ParticleStatus)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *ClientSettings) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	s.Locale, err = util.ReadStringMax(rd, 16)
	if err != nil {
		return err
	}
	s.ViewDistance, err = util.ReadUint8(rd)
	if err != nil {
		return err
	}
	s.ChatVisibility, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	s.ChatColors, err = util.ReadBool(rd)
	if err != nil {
		return err
	}
	s.SkinParts, err = util.ReadByte(rd)
	if err != nil {
		return err
	}
	s.MainHand, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_17) {
		s.TextFiltering, err = util.ReadBool(rd)
		if err != nil {
			return err
		}
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_18) {
		s.ClientListing, err = util.ReadBool(rd)
		if err != nil {
			return err
		}
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_21_2) {
		s.ParticleStatus, err = util.ReadVarInt(rd)
		if err != nil {
			return err
		}
	}
	return nil
}

var _ proto.Packet = (*ClientSettings)(nil)
