package client

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"reflect"
	"time"

	"github.com/go-logr/logr"

	"go.craftchat.dev/craftchat/pkg/auth"
	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/packet"
	"go.craftchat.dev/craftchat/pkg/proto/state"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// authTimeout bounds the session join round-trip during the
// encryption handshake.
const authTimeout = 15 * time.Second

// loginSessionHandler drives the login state until the server confirms
// the login or disconnects us.
type loginSessionHandler struct {
	conn *Conn
	log  logr.Logger

	nopSessionHandler
}

func newLoginSessionHandler(conn *Conn) sessionHandler {
	return &loginSessionHandler{
		conn: conn,
		log:  conn.log.WithName("loginSession"),
	}
}

func (l *loginSessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		return // ignore unknown
	}

	switch p := pc.Packet.(type) {
	case *packet.EncryptionRequest:
		l.handleEncryptionRequest(p)
	case *packet.SetCompression:
		l.handleSetCompression(p)
	case *packet.ServerLoginSuccess:
		l.handleLoginSuccess(p)
	case *packet.DisconnectLogin:
		l.handleDisconnect(p)
	case *packet.LoginPluginMessage:
		l.handleLoginPluginMessage(p)
	default:
		l.log.V(1).Info("received unexpected packet while logging in",
			"packetType", reflect.TypeOf(p))
	}
}

// handleEncryptionRequest performs the client side of the encryption
// handshake: join the session server with the secret's digest, answer
// with the RSA encrypted secret and token and only then turn on the
// stream cipher in both directions.
func (l *loginSessionHandler) handleEncryptionRequest(p *packet.EncryptionRequest) {
	c := l.conn
	if !c.opts.OnlineMode() {
		l.failLogin(fmt.Errorf("server is online mode, but no access token is configured"))
		return
	}

	serverKey, err := x509.ParsePKIXPublicKey(p.PublicKey)
	if err != nil {
		l.failLogin(fmt.Errorf("error parsing server public key: %w", err))
		return
	}
	rsaKey, ok := serverKey.(*rsa.PublicKey)
	if !ok {
		l.failLogin(fmt.Errorf("server public key is %T, not RSA", serverKey))
		return
	}

	secret := make([]byte, 16)
	if _, err = rand.Read(secret); err != nil {
		l.failLogin(fmt.Errorf("error generating shared secret: %w", err))
		return
	}

	// The server sends nothing further until it received our response,
	// so the auth round-trip may block the read loop. Staying on the
	// read loop also means the ciphers are on before the next read.
	if p.ShouldAuthenticate || c.Protocol().Lower(version.Minecraft_1_20_5) {
		hash := auth.ServerHash(p.ServerID, secret, p.PublicKey)
		ctx, cancel := context.WithTimeout(c.Context(), authTimeout)
		defer cancel()
		err := c.sessionService().Join(ctx, c.opts.AccessToken, c.opts.Profile, hash)
		if err != nil {
			l.failLogin(fmt.Errorf("error joining session: %w", err))
			return
		}
	}

	encryptedSecret, err := rsa.EncryptPKCS1v15(rand.Reader, rsaKey, secret)
	if err != nil {
		l.failLogin(fmt.Errorf("error encrypting shared secret: %w", err))
		return
	}
	encryptedToken, err := rsa.EncryptPKCS1v15(rand.Reader, rsaKey, p.VerifyToken)
	if err != nil {
		l.failLogin(fmt.Errorf("error encrypting verify token: %w", err))
		return
	}

	err = c.WritePacket(&packet.EncryptionResponse{
		SharedSecret: encryptedSecret,
		VerifyToken:  encryptedToken,
	})
	if err != nil {
		return // connection is closed by WritePacket
	}

	// Every byte after the response travels encrypted,
	// including the packet length prefixes.
	if err = c.rd.EnableEncryption(secret); err != nil {
		l.failLogin(fmt.Errorf("error enabling decryption: %w", err))
		return
	}
	if err = c.wr.EnableEncryption(secret); err != nil {
		l.failLogin(fmt.Errorf("error enabling encryption: %w", err))
		return
	}
}

func (l *loginSessionHandler) handleSetCompression(p *packet.SetCompression) {
	l.conn.rd.SetCompressionThreshold(p.Threshold)
	if err := l.conn.wr.SetCompressionThreshold(p.Threshold); err != nil {
		l.failLogin(fmt.Errorf("error enabling compression: %w", err))
	}
}

func (l *loginSessionHandler) handleLoginSuccess(p *packet.ServerLoginSuccess) {
	c := l.conn
	l.log.Info("logged in", "username", p.Username, "id", p.UUID)

	id := p.UUID
	if id == uuid.Nil {
		id = c.opts.Profile
	}
	c.fire(ConnectedEvent{Username: p.Username, ID: id})

	if c.Protocol().GreaterEqual(version.Minecraft_1_20_2) {
		// Acknowledge and move to the configuration state.
		if err := c.WritePacket(&packet.LoginAcknowledged{}); err != nil {
			return
		}
		c.setState(state.Config)
		c.fire(StateEvent{State: StateConfiguration})
		c.setSessionHandler(newConfigSessionHandler(c))
		return
	}
	c.setState(state.Play)
	c.fire(StateEvent{State: StatePlay})
	c.setSessionHandler(newPlaySessionHandler(c))
}

func (l *loginSessionHandler) handleDisconnect(p *packet.DisconnectLogin) {
	if p.Reason != nil {
		l.conn.disconnectReason.Store(p.Reason.AsComponentOrNil())
	}
	_ = l.conn.Close()
}

// handleLoginPluginMessage answers any custom login plugin request as
// not understood, which vanilla servers accept.
func (l *loginSessionHandler) handleLoginPluginMessage(p *packet.LoginPluginMessage) {
	_ = l.conn.WritePacket(&packet.LoginPluginResponse{
		ID:      p.ID,
		Success: false,
	})
}

// failLogin closes the connection with a user readable reason.
func (l *loginSessionHandler) failLogin(err error) {
	l.log.V(1).Info("login failed", "error", err.Error())
	l.conn.disconnectReason.Store(&chat.Component{
		Text: "Failed to log in: " + err.Error(),
	})
	l.conn.closeErr.Store(err)
	_ = l.conn.Close()
}

// nopSessionHandler implements the optional sessionHandler methods.
type nopSessionHandler struct{}

func (nopSessionHandler) Activated()    {}
func (nopSessionHandler) Deactivated()  {}
func (nopSessionHandler) Disconnected() {}
