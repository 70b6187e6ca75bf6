package state

import (
	p "go.craftchat.dev/craftchat/pkg/proto/packet"
	pc "go.craftchat.dev/craftchat/pkg/proto/packet/chat"
	"go.craftchat.dev/craftchat/pkg/proto/version"
)

// State is a Java edition connection state.
type State int

// The states a connection moves through.
const (
	HandshakeState State = iota
	StatusState
	LoginState
	ConfigState
	PlayState
)

func (s State) String() string {
	switch s {
	case HandshakeState:
		return "Handshake"
	case StatusState:
		return "Status"
	case LoginState:
		return "Login"
	case ConfigState:
		return "Config"
	case PlayState:
		return "Play"
	}
	return "Unknown"
}

// The registries storing the packets for a connection state.
var (
	Handshake = NewRegistry(HandshakeState)
	Status    = NewRegistry(StatusState)
	Login     = NewRegistry(LoginState)
	Config    = NewRegistry(ConfigState)
	Play      = NewRegistry(PlayState)
)

func init() {
	Handshake.ServerBound.Register(&p.Handshake{},
		m(0x00, version.Minecraft_1_16_4))

	Status.ServerBound.Register(&p.StatusRequest{},
		m(0x00, version.Minecraft_1_16_4))
	Status.ServerBound.Register(&p.StatusPing{},
		m(0x01, version.Minecraft_1_16_4))

	Status.ClientBound.Register(&p.StatusResponse{},
		m(0x00, version.Minecraft_1_16_4))
	Status.ClientBound.Register(&p.StatusPing{},
		m(0x01, version.Minecraft_1_16_4))

	Login.ServerBound.Register(&p.ServerLogin{},
		m(0x00, version.Minecraft_1_16_4))
	Login.ServerBound.Register(&p.EncryptionResponse{},
		m(0x01, version.Minecraft_1_16_4))
	Login.ServerBound.Register(&p.LoginPluginResponse{},
		m(0x02, version.Minecraft_1_16_4))
	Login.ServerBound.Register(&p.LoginAcknowledged{},
		m(0x03, version.Minecraft_1_20_2))

	Login.ClientBound.Register(&p.DisconnectLogin{},
		m(0x00, version.Minecraft_1_16_4))
	Login.ClientBound.Register(&p.EncryptionRequest{},
		m(0x01, version.Minecraft_1_16_4))
	Login.ClientBound.Register(&p.ServerLoginSuccess{},
		m(0x02, version.Minecraft_1_16_4))
	Login.ClientBound.Register(&p.SetCompression{},
		m(0x03, version.Minecraft_1_16_4))
	Login.ClientBound.Register(&p.LoginPluginMessage{},
		m(0x04, version.Minecraft_1_16_4))

	// The configuration state exists since 1.20.2. 1.20.5 prepended the
	// cookie packets, shifting everything but client information.
	Config.ServerBound.Register(&p.ClientSettings{},
		m(0x00, version.Minecraft_1_20_2))
	Config.ServerBound.Register(&p.PluginMessage{},
		m(0x01, version.Minecraft_1_20_2),
		m(0x02, version.Minecraft_1_20_5))
	Config.ServerBound.Register(&p.FinishConfiguration{},
		m(0x02, version.Minecraft_1_20_2),
		m(0x03, version.Minecraft_1_20_5))
	Config.ServerBound.Register(&p.KeepAlive{},
		m(0x03, version.Minecraft_1_20_2),
		m(0x04, version.Minecraft_1_20_5))
	Config.ServerBound.Register(&p.Pong{},
		m(0x04, version.Minecraft_1_20_2),
		m(0x05, version.Minecraft_1_20_5))

	Config.ClientBound.Register(&p.PluginMessage{},
		m(0x00, version.Minecraft_1_20_2),
		m(0x01, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&p.Disconnect{},
		m(0x01, version.Minecraft_1_20_2),
		m(0x02, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&p.FinishConfiguration{},
		m(0x02, version.Minecraft_1_20_2),
		m(0x03, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&p.KeepAlive{},
		m(0x03, version.Minecraft_1_20_2),
		m(0x04, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&p.Ping{},
		m(0x04, version.Minecraft_1_20_2),
		m(0x05, version.Minecraft_1_20_5))

	// Play packets are never resolved via fallback: an unknown id must
	// stay unknown instead of decoding as another version's packet.
	Play.ServerBound.Fallback = false
	Play.ClientBound.Fallback = false

	Play.ServerBound.Register(&p.KeepAlive{},
		m(0x10, version.Minecraft_1_16_4),
		m(0x0F, version.Minecraft_1_17),
		m(0x11, version.Minecraft_1_19),
		m(0x12, version.Minecraft_1_19_1),
		m(0x11, version.Minecraft_1_19_3),
		m(0x12, version.Minecraft_1_19_4),
		m(0x14, version.Minecraft_1_20_2),
		m(0x15, version.Minecraft_1_20_3),
		m(0x18, version.Minecraft_1_20_5),
		m(0x1A, version.Minecraft_1_21_2),
	)
	Play.ServerBound.Register(&p.Pong{},
		m(0x1D, version.Minecraft_1_17),
		m(0x1F, version.Minecraft_1_19),
		m(0x20, version.Minecraft_1_19_1),
		m(0x1F, version.Minecraft_1_19_3),
		m(0x20, version.Minecraft_1_19_4),
		m(0x23, version.Minecraft_1_20_2),
		m(0x24, version.Minecraft_1_20_3),
		m(0x27, version.Minecraft_1_20_5),
		m(0x29, version.Minecraft_1_21_2),
	)
	Play.ServerBound.Register(&p.PluginMessage{},
		m(0x0B, version.Minecraft_1_16_4),
		m(0x0A, version.Minecraft_1_17),
		m(0x0C, version.Minecraft_1_19),
		m(0x0D, version.Minecraft_1_19_1),
		m(0x0C, version.Minecraft_1_19_3),
		m(0x0D, version.Minecraft_1_19_4),
		m(0x0F, version.Minecraft_1_20_2),
		m(0x10, version.Minecraft_1_20_3),
		m(0x12, version.Minecraft_1_20_5),
		m(0x14, version.Minecraft_1_21_2),
	)
	Play.ServerBound.Register(&p.ClientSettings{},
		m(0x05, version.Minecraft_1_16_4),
		m(0x07, version.Minecraft_1_19),
		m(0x08, version.Minecraft_1_19_1),
		m(0x07, version.Minecraft_1_19_3),
		m(0x08, version.Minecraft_1_19_4),
		m(0x09, version.Minecraft_1_20_2),
		m(0x0A, version.Minecraft_1_20_5),
		m(0x0C, version.Minecraft_1_21_2),
	)
	Play.ServerBound.Register(&p.ClientStatus{},
		m(0x04, version.Minecraft_1_16_4),
		m(0x06, version.Minecraft_1_19),
		m(0x07, version.Minecraft_1_19_1),
		m(0x06, version.Minecraft_1_19_3),
		m(0x07, version.Minecraft_1_19_4),
		m(0x08, version.Minecraft_1_20_2),
		m(0x09, version.Minecraft_1_20_5),
		m(0x0A, version.Minecraft_1_21_2),
	)
	Play.ServerBound.Register(&p.CloseWindow{},
		m(0x0A, version.Minecraft_1_16_4),
		m(0x09, version.Minecraft_1_17),
		m(0x0B, version.Minecraft_1_19),
		m(0x0C, version.Minecraft_1_19_1),
		m(0x0B, version.Minecraft_1_19_3),
		m(0x0C, version.Minecraft_1_19_4),
		m(0x0E, version.Minecraft_1_20_2),
		m(0x0F, version.Minecraft_1_20_5),
		m(0x11, version.Minecraft_1_21_2),
	)
	Play.ServerBound.Register(&p.AcknowledgeConfiguration{},
		m(0x0B, version.Minecraft_1_20_2),
		m(0x0C, version.Minecraft_1_20_5),
		m(0x0E, version.Minecraft_1_21_2),
	)
	Play.ServerBound.Register(&pc.LegacyChat{},
		ml(0x03, version.Minecraft_1_16_4, version.Minecraft_1_18_2),
	)
	Play.ServerBound.Register(&pc.KeyedPlayerChat{},
		m(0x04, version.Minecraft_1_19),
		ml(0x05, version.Minecraft_1_19_1, version.Minecraft_1_19_1),
	)
	Play.ServerBound.Register(&pc.KeyedPlayerCommand{},
		m(0x03, version.Minecraft_1_19),
		ml(0x04, version.Minecraft_1_19_1, version.Minecraft_1_19_1),
	)
	Play.ServerBound.Register(&pc.SessionPlayerChat{},
		m(0x05, version.Minecraft_1_19_3),
		m(0x06, version.Minecraft_1_20_5),
		m(0x07, version.Minecraft_1_21_2),
	)
	Play.ServerBound.Register(&pc.SessionPlayerCommand{},
		m(0x04, version.Minecraft_1_19_3),
		m(0x05, version.Minecraft_1_20_5),
		m(0x06, version.Minecraft_1_21_2),
	)
	Play.ServerBound.Register(&pc.UnsignedPlayerCommand{},
		m(0x04, version.Minecraft_1_20_5),
		m(0x05, version.Minecraft_1_21_2),
	)

	Play.ClientBound.Register(&p.KeepAlive{},
		m(0x1F, version.Minecraft_1_16_4),
		m(0x21, version.Minecraft_1_17),
		m(0x1E, version.Minecraft_1_19),
		m(0x20, version.Minecraft_1_19_1),
		m(0x1F, version.Minecraft_1_19_3),
		m(0x23, version.Minecraft_1_19_4),
		m(0x24, version.Minecraft_1_20_2),
		m(0x26, version.Minecraft_1_20_5),
		m(0x27, version.Minecraft_1_21_2),
	)
	Play.ClientBound.Register(&p.Ping{},
		m(0x30, version.Minecraft_1_17),
		m(0x2D, version.Minecraft_1_19),
		m(0x2F, version.Minecraft_1_19_1),
		m(0x2E, version.Minecraft_1_19_3),
		m(0x32, version.Minecraft_1_19_4),
		m(0x33, version.Minecraft_1_20_2),
		m(0x35, version.Minecraft_1_20_5),
		m(0x37, version.Minecraft_1_21_2),
	)
	Play.ClientBound.Register(&p.JoinGame{},
		m(0x24, version.Minecraft_1_16_4),
		m(0x26, version.Minecraft_1_17),
		m(0x23, version.Minecraft_1_19),
		m(0x25, version.Minecraft_1_19_1),
		m(0x24, version.Minecraft_1_19_3),
		m(0x28, version.Minecraft_1_19_4),
		m(0x29, version.Minecraft_1_20_2),
		m(0x2B, version.Minecraft_1_20_5),
		m(0x2C, version.Minecraft_1_21_2),
	)
	Play.ClientBound.Register(&p.Respawn{},
		m(0x39, version.Minecraft_1_16_4),
		m(0x3D, version.Minecraft_1_17),
		m(0x3B, version.Minecraft_1_19),
		m(0x3E, version.Minecraft_1_19_1),
		m(0x3D, version.Minecraft_1_19_3),
		m(0x41, version.Minecraft_1_19_4),
		m(0x43, version.Minecraft_1_20_2),
		m(0x45, version.Minecraft_1_20_3),
		m(0x47, version.Minecraft_1_20_5),
		m(0x4C, version.Minecraft_1_21_2),
	)
	Play.ClientBound.Register(&p.Disconnect{},
		m(0x19, version.Minecraft_1_16_4),
		m(0x1A, version.Minecraft_1_17),
		m(0x17, version.Minecraft_1_19),
		m(0x19, version.Minecraft_1_19_1),
		m(0x17, version.Minecraft_1_19_3),
		m(0x1A, version.Minecraft_1_19_4),
		m(0x1B, version.Minecraft_1_20_2),
		m(0x1D, version.Minecraft_1_20_5),
	)
	Play.ClientBound.Register(&p.PluginMessage{},
		m(0x17, version.Minecraft_1_16_4),
		m(0x18, version.Minecraft_1_17),
		m(0x15, version.Minecraft_1_19),
		m(0x16, version.Minecraft_1_19_1),
		m(0x15, version.Minecraft_1_19_3),
		m(0x17, version.Minecraft_1_19_4),
		m(0x18, version.Minecraft_1_20_2),
		m(0x1A, version.Minecraft_1_20_5),
	)
	Play.ClientBound.Register(&pc.LegacyChat{},
		m(0x0E, version.Minecraft_1_16_4),
		ml(0x0F, version.Minecraft_1_17, version.Minecraft_1_18_2),
	)
	Play.ClientBound.Register(&pc.SystemChat{},
		m(0x5F, version.Minecraft_1_19),
		m(0x62, version.Minecraft_1_19_1),
		m(0x60, version.Minecraft_1_19_3),
		m(0x64, version.Minecraft_1_19_4),
		m(0x67, version.Minecraft_1_20_2),
		m(0x69, version.Minecraft_1_20_3),
		m(0x6C, version.Minecraft_1_20_5),
		m(0x73, version.Minecraft_1_21_2),
	)
	Play.ClientBound.Register(&pc.PlayerChat{},
		m(0x30, version.Minecraft_1_19),
		m(0x33, version.Minecraft_1_19_1),
		m(0x31, version.Minecraft_1_19_3),
		m(0x35, version.Minecraft_1_19_4),
		m(0x37, version.Minecraft_1_20_2),
		m(0x39, version.Minecraft_1_20_5),
		m(0x3B, version.Minecraft_1_21_2),
	)
	Play.ClientBound.Register(&p.OpenScreen{},
		m(0x2D, version.Minecraft_1_16_4),
		m(0x2E, version.Minecraft_1_17),
		m(0x2B, version.Minecraft_1_19),
		m(0x2D, version.Minecraft_1_19_1),
		m(0x2C, version.Minecraft_1_19_3),
		m(0x30, version.Minecraft_1_19_4),
		m(0x31, version.Minecraft_1_20_2),
		m(0x33, version.Minecraft_1_20_5),
		m(0x35, version.Minecraft_1_21_2),
	)
	Play.ClientBound.Register(&p.CloseWindow{},
		m(0x12, version.Minecraft_1_16_4),
		m(0x13, version.Minecraft_1_17),
		m(0x10, version.Minecraft_1_19),
		m(0x10, version.Minecraft_1_19_1),
		m(0x0F, version.Minecraft_1_19_3),
		m(0x11, version.Minecraft_1_19_4),
		m(0x12, version.Minecraft_1_20_2),
		m(0x14, version.Minecraft_1_20_5),
	)
	Play.ClientBound.Register(&p.CombatDeath{},
		m(0x31, version.Minecraft_1_16_4),
		m(0x35, version.Minecraft_1_17),
		m(0x33, version.Minecraft_1_19),
		m(0x36, version.Minecraft_1_19_1),
		m(0x34, version.Minecraft_1_19_3),
		m(0x38, version.Minecraft_1_19_4),
		m(0x3A, version.Minecraft_1_20_2),
		m(0x3C, version.Minecraft_1_20_5),
		m(0x3E, version.Minecraft_1_21_2),
	)
	Play.ClientBound.Register(&p.UpdateHealth{},
		m(0x49, version.Minecraft_1_16_4),
		m(0x52, version.Minecraft_1_17),
		m(0x55, version.Minecraft_1_19_1),
		m(0x53, version.Minecraft_1_19_3),
		m(0x57, version.Minecraft_1_19_4),
		m(0x59, version.Minecraft_1_20_2),
		m(0x5B, version.Minecraft_1_20_3),
		m(0x5D, version.Minecraft_1_20_5),
		m(0x61, version.Minecraft_1_21_2),
	)
	Play.ClientBound.Register(&p.StartConfiguration{},
		m(0x65, version.Minecraft_1_20_2),
		m(0x67, version.Minecraft_1_20_3),
		m(0x69, version.Minecraft_1_20_5),
		m(0x70, version.Minecraft_1_21_2),
	)
}
