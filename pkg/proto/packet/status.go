package packet

import (
	"io"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
)

type StatusRequest struct{}

func (s *StatusRequest) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (s *StatusRequest) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }

const maxStatusLength = 65536

type StatusResponse struct {
	Status string // the raw status json document
}

func (s *StatusResponse) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteString(wr, s.Status)
}

func (s *StatusResponse) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Status, err = util.ReadStringMax(rd, maxStatusLength)
	return
}

// StatusPing is echoed by the server; the payload round-trip measures
// latency.
type StatusPing struct {
	RandomID int64
}

func (s *StatusPing) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt64(wr, s.RandomID)
}

func (s *StatusPing) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.RandomID, err = util.ReadInt64(rd)
	return
}

var (
	_ proto.Packet = (*StatusRequest)(nil)
	_ proto.Packet = (*StatusResponse)(nil)
	_ proto.Packet = (*StatusPing)(nil)
)
