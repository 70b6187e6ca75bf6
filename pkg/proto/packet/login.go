package packet

import (
	"errors"
	"io"

	"go.craftchat.dev/craftchat/pkg/profile"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/errs"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

const maxUsernameLen = 16

var errEmptyUsername = errs.NewSilentErr("empty username")

// ServerLogin starts the login phase.
type ServerLogin struct {
	Username string
	// HolderID is the player uuid sent since 1.19.1. The 1.19 profile
	// public key block is always encoded as absent: chat signing keys
	// are not published by this client.
	HolderID uuid.UUID
}

func (s *ServerLogin) Encode(c *proto.PacketContext, wr io.Writer) error {
	if s.Username == "" {
		return errors.New("username not specified")
	}
	err := util.WriteString(wr, s.Username)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19) && c.Protocol.Lower(version.Minecraft_1_19_3) {
		// has public key
		err = util.WriteBool(wr, false)
		if err != nil {
			return err
		}
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19_1) {
		if c.Protocol.GreaterEqual(version.Minecraft_1_20_2) {
			// uuid is mandatory since 1.20.2
			return util.WriteUUID(wr, s.HolderID)
		}
		ok := s.HolderID != uuid.Nil
		err = util.WriteBool(wr, ok)
		if err != nil {
			return err
		}
		if ok {
			return util.WriteUUID(wr, s.HolderID)
		}
	}
	return nil
}

func (s *ServerLogin) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	s.Username, err = util.ReadStringMax(rd, maxUsernameLen)
	if err != nil {
		return err
	}
	if len(s.Username) == 0 {
		return errEmptyUsername
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19) && c.Protocol.Lower(version.Minecraft_1_19_3) {
		var hasKey bool
		hasKey, err = util.ReadBool(rd)
		if err != nil {
			return err
		}
		if hasKey {
			// expiry + varint key + varint signature, skipped
			if _, err = util.ReadInt64(rd); err != nil {
				return err
			}
			if _, err = util.ReadBytes(rd); err != nil {
				return err
			}
			if _, err = util.ReadBytes(rd); err != nil {
				return err
			}
		}
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19_1) {
		ok := true
		if c.Protocol.Lower(version.Minecraft_1_20_2) {
			ok, err = util.ReadBool(rd)
			if err != nil {
				return err
			}
		}
		if ok {
			s.HolderID, err = util.ReadUUID(rd)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// EncryptionRequest asks the client to begin the online-mode key
// exchange.
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte // DER encoded RSA public key
	VerifyToken []byte
	// ShouldAuthenticate indicates whether the client must notify the
	// session service before responding. 1.20.5+.
	ShouldAuthenticate bool
}

func (e *EncryptionRequest) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, e.ServerID)
	if err != nil {
		return err
	}
	err = util.WriteBytes(wr, e.PublicKey)
	if err != nil {
		return err
	}
	err = util.WriteBytes(wr, e.VerifyToken)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		return util.WriteBool(wr, e.ShouldAuthenticate)
	}
	return nil
}

func (e *EncryptionRequest) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	e.ServerID, err = util.ReadStringMax(rd, 20)
	if err != nil {
		return err
	}
	e.PublicKey, err = util.ReadBytesLen(rd, 512)
	if err != nil {
		return err
	}
	e.VerifyToken, err = util.ReadBytesLen(rd, 16)
	if err != nil {
		return err
	}
	e.ShouldAuthenticate = true
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		e.ShouldAuthenticate, err = util.ReadBool(rd)
	}
	return err
}

// EncryptionResponse carries the RSA-encrypted shared secret and verify
// token back to the server.
//
// 1.19 through 1.19.2 wrap the verify token in a "has verify token"
// boolean: when false, an 8-byte salt and a message signature replace
// it. This client always sends the token, so Salt is only ever set when
// decoding foreign traffic.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
	Salt         *int64 // 1.19-1.19.2
}

func (e *EncryptionResponse) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteBytes(wr, e.SharedSecret)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19) && c.Protocol.Lower(version.Minecraft_1_19_3) {
		err = util.WriteBool(wr, e.Salt == nil) // true = token follows
		if err != nil {
			return err
		}
		if e.Salt != nil {
			err = util.WriteInt64(wr, *e.Salt)
			if err != nil {
				return err
			}
		}
	}
	return util.WriteBytes(wr, e.VerifyToken)
}

func (e *EncryptionResponse) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	e.SharedSecret, err = util.ReadBytesLen(rd, 256)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19) && c.Protocol.Lower(version.Minecraft_1_19_3) {
		var hasToken bool
		hasToken, err = util.ReadBool(rd)
		if err != nil {
			return err
		}
		if !hasToken {
			salt, err := util.ReadInt64(rd)
			if err != nil {
				return err
			}
			e.Salt = &salt
		}
	}
	e.VerifyToken, err = util.ReadBytesLen(rd, 256)
	return err
}

// ServerLoginSuccess completes the login phase.
type ServerLoginSuccess struct {
	UUID       uuid.UUID
	Username   string
	Properties []profile.Property // 1.19+
	// StrictErrorHandling existed in 1.20.5 through 1.21 only.
	StrictErrorHandling bool
}

func (s *ServerLoginSuccess) Encode(c *proto.PacketContext, wr io.Writer) (err error) {
	if s.Username == "" {
		return errors.New("no username specified")
	}
	err = util.WriteUUID(wr, s.UUID)
	if err != nil {
		return err
	}
	err = util.WriteString(wr, s.Username)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19) {
		err = util.WriteProperties(wr, s.Properties)
		if err != nil {
			return err
		}
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) && c.Protocol.Lower(version.Minecraft_1_21_2) {
		return util.WriteBool(wr, s.StrictErrorHandling)
	}
	return nil
}

func (s *ServerLoginSuccess) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	s.UUID, err = util.ReadUUID(rd)
	if err != nil {
		return err
	}
	s.Username, err = util.ReadStringMax(rd, maxUsernameLen)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19) {
		s.Properties, err = util.ReadProperties(rd)
		if err != nil {
			return err
		}
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) && c.Protocol.Lower(version.Minecraft_1_21_2) {
		s.StrictErrorHandling, err = util.ReadBool(rd)
	}
	return err
}

// SetCompression enables compression from the next packet on.
type SetCompression struct {
	Threshold int
}

func (s *SetCompression) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteVarInt(wr, s.Threshold)
}

func (s *SetCompression) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Threshold, err = util.ReadVarInt(rd)
	return
}

// LoginAcknowledged moves the connection into the configuration state.
// 1.20.2+.
type LoginAcknowledged struct{}

func (l *LoginAcknowledged) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (l *LoginAcknowledged) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }

type LoginPluginMessage struct {
	ID      int
	Channel string
	Data    []byte
}

func (l *LoginPluginMessage) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteVarInt(wr, l.ID)
	if err != nil {
		return err
	}
	err = util.WriteString(wr, l.Channel)
	if err != nil {
		return err
	}
	return util.WriteRawBytes(wr, l.Data)
}

func (l *LoginPluginMessage) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	l.ID, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	l.Channel, err = util.ReadString(rd)
	if err != nil {
		return err
	}
	l.Data, err = util.ReadRawBytes(rd)
	if errors.Is(err, io.EOF) {
		// empty payload is fine
		return nil
	}
	return
}

type LoginPluginResponse struct {
	ID      int
	Success bool
	Data    []byte
}

func (l *LoginPluginResponse) Encode(_ *proto.PacketContext, wr io.Writer) (err error) {
	err = util.WriteVarInt(wr, l.ID)
	if err != nil {
		return err
	}
	err = util.WriteBool(wr, l.Success)
	if err != nil {
		return err
	}
	return util.WriteRawBytes(wr, l.Data)
}

func (l *LoginPluginResponse) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	l.ID, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	l.Success, err = util.ReadBool(rd)
	if err != nil {
		return err
	}
	l.Data, err = util.ReadRawBytes(rd)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return
}

var (
	_ proto.Packet = (*ServerLogin)(nil)
	_ proto.Packet = (*EncryptionRequest)(nil)
	_ proto.Packet = (*EncryptionResponse)(nil)
	_ proto.Packet = (*ServerLoginSuccess)(nil)
	_ proto.Packet = (*SetCompression)(nil)
	_ proto.Packet = (*LoginAcknowledged)(nil)
	_ proto.Packet = (*LoginPluginMessage)(nil)
	_ proto.Packet = (*LoginPluginResponse)(nil)
)
