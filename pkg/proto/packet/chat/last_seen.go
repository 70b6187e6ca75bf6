package chat

import (
	"io"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
)

// ackBytes is the fixed size of the acknowledged-messages bitset:
// 20 bits rounded up.
const ackBytes = 3

// LastSeenMessages is the acknowledgement block trailing serverbound
// chat since 1.19.3. A client that signs nothing always sends offset 0
// and an all-zero bitset.
type LastSeenMessages struct {
	Offset       int
	Acknowledged [ackBytes]byte
}

var _ proto.Packet = (*LastSeenMessages)(nil)

func (l *LastSeenMessages) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteVarInt(wr, l.Offset); err != nil {
		return err
	}
	_, err := wr.Write(l.Acknowledged[:])
	return err
}

func (l *LastSeenMessages) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	l.Offset, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	_, err = io.ReadFull(rd, l.Acknowledged[:])
	return err
}
