package packet

import (
	"io"

	"go.craftchat.dev/craftchat/pkg/proto"
)

// FinishConfiguration tells the client the configuration state is
// complete; the same empty body acknowledges it serverbound.
type FinishConfiguration struct{}

func (f *FinishConfiguration) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (f *FinishConfiguration) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }

// StartConfiguration is sent during play to re-enter the configuration
// state, acknowledged with AcknowledgeConfiguration.
type StartConfiguration struct{}

func (s *StartConfiguration) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (s *StartConfiguration) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }

type AcknowledgeConfiguration struct{}

func (a *AcknowledgeConfiguration) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (a *AcknowledgeConfiguration) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }

var (
	_ proto.Packet = (*FinishConfiguration)(nil)
	_ proto.Packet = (*StartConfiguration)(nil)
	_ proto.Packet = (*AcknowledgeConfiguration)(nil)
)
