package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.craftchat.dev/craftchat/pkg/auth"
	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/codec"
	"go.craftchat.dev/craftchat/pkg/proto/packet"
	pchat "go.craftchat.dev/craftchat/pkg/proto/packet/chat"
	"go.craftchat.dev/craftchat/pkg/proto/state"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// serverConn speaks the server half of the protocol against a real
// client connection, using the same codec the client uses.
type serverConn struct {
	c   net.Conn
	enc *codec.Encoder
	dec *codec.Decoder
}

func (sc *serverConn) setState(s *state.Registry) {
	sc.enc.SetState(s)
	sc.dec.SetState(s)
}

func (sc *serverConn) setProtocol(p proto.Protocol) {
	sc.enc.SetProtocol(p)
	sc.dec.SetProtocol(p)
}

func (sc *serverConn) write(p proto.Packet) error {
	_, err := sc.enc.WritePacket(p)
	return err
}

func expectServerPacket[T proto.Packet](sc *serverConn) (T, error) {
	var zero T
	pc, err := sc.dec.Decode()
	if err != nil {
		return zero, err
	}
	p, ok := pc.Packet.(T)
	if !ok {
		return zero, fmt.Errorf("expected %T, got id %s (%T)", zero, pc.PacketID, pc.Packet)
	}
	return p, nil
}

// acceptLogin reads the handshake and login start and moves the codecs
// into the login state at the client's protocol.
func (sc *serverConn) acceptLogin(username string) error {
	hs, err := expectServerPacket[*packet.Handshake](sc)
	if err != nil {
		return err
	}
	if hs.NextStatus != packet.LoginIntent {
		return fmt.Errorf("expected login intent, got %d", hs.NextStatus)
	}
	sc.setState(state.Login)
	sc.setProtocol(proto.Protocol(hs.ProtocolVersion))
	login, err := expectServerPacket[*packet.ServerLogin](sc)
	if err != nil {
		return err
	}
	if login.Username != username {
		return fmt.Errorf("expected username %q, got %q", username, login.Username)
	}
	return nil
}

// runConfiguration plays the server side of the configuration phase:
// consume brand and settings, then exchange finish packets.
func (sc *serverConn) runConfiguration() error {
	sc.setState(state.Config)
	brand, err := expectServerPacket[*packet.PluginMessage](sc)
	if err != nil {
		return err
	}
	if brand.Channel != packet.BrandChannel {
		return fmt.Errorf("expected brand channel, got %q", brand.Channel)
	}
	if _, err = expectServerPacket[*packet.ClientSettings](sc); err != nil {
		return err
	}
	if err = sc.write(&packet.FinishConfiguration{}); err != nil {
		return err
	}
	if _, err = expectServerPacket[*packet.FinishConfiguration](sc); err != nil {
		return err
	}
	sc.setState(state.Play)
	return nil
}

// runServer serves exactly one connection with script and reports the
// script's error on the returned channel.
func runServer(t *testing.T, script func(sc *serverConn) error) (port uint16, done chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	done = make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		defer func() { _ = conn.Close() }()
		done <- script(&serverConn{
			c:   conn,
			enc: codec.NewEncoder(conn, proto.ClientBound, logr.Discard()),
			dec: codec.NewDecoder(conn, proto.ServerBound, logr.Discard()),
		})
	}()
	return uint16(ln.Addr().(*net.TCPAddr).Port), done
}

func nextEvent(t *testing.T, c *Conn) Event {
	t.Helper()
	select {
	case e, ok := <-c.Events():
		require.True(t, ok, "event channel closed early")
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func requireEvent[T Event](t *testing.T, c *Conn) T {
	t.Helper()
	e := nextEvent(t, c)
	ev, ok := e.(T)
	var zero T
	require.True(t, ok, "expected %T, got %T: %+v", zero, e, e)
	return ev
}

func requireClosed(t *testing.T, c *Conn) {
	t.Helper()
	select {
	case _, ok := <-c.Events():
		require.False(t, ok, "expected event channel to be closed")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event channel close")
	}
}

func holder(text string) *chat.ComponentHolder {
	return &chat.ComponentHolder{Component: &chat.Component{Text: text}}
}

func TestConnect(t *testing.T) {
	steveID := uuid.New()
	port, done := runServer(t, func(sc *serverConn) error {
		if err := sc.acceptLogin("Steve"); err != nil {
			return err
		}

		// Compression first, it applies from the next packet on.
		if err := sc.write(&packet.SetCompression{Threshold: 64}); err != nil {
			return err
		}
		if err := sc.enc.SetCompression(64, -1); err != nil {
			return err
		}
		sc.dec.SetCompressionThreshold(64)

		if err := sc.write(&packet.ServerLoginSuccess{UUID: steveID, Username: "Steve"}); err != nil {
			return err
		}
		if _, err := expectServerPacket[*packet.LoginAcknowledged](sc); err != nil {
			return err
		}
		if err := sc.runConfiguration(); err != nil {
			return err
		}

		if err := sc.write(&packet.JoinGame{}); err != nil {
			return err
		}
		join, err := expectServerPacket[*pchat.SessionPlayerChat](sc)
		if err != nil {
			return err
		}
		if join.Message != "hello everyone" {
			return fmt.Errorf("expected join message, got %q", join.Message)
		}
		if join.Signed {
			return fmt.Errorf("expected unsigned chat")
		}

		if err = sc.write(&pchat.SystemChat{
			Component: holder("welcome to chat"),
			Type:      pchat.SystemMessageType,
		}); err != nil {
			return err
		}

		if err = sc.write(&packet.KeepAlive{RandomID: 0xCAFE}); err != nil {
			return err
		}
		ka, err := expectServerPacket[*packet.KeepAlive](sc)
		if err != nil {
			return err
		}
		if ka.RandomID != 0xCAFE {
			return fmt.Errorf("keep-alive echoed %d", ka.RandomID)
		}

		if err = sc.write(&packet.Ping{ID: 42}); err != nil {
			return err
		}
		pong, err := expectServerPacket[*packet.Pong](sc)
		if err != nil {
			return err
		}
		if pong.ID != 42 {
			return fmt.Errorf("ping echoed %d", pong.ID)
		}

		return sc.write(&packet.Disconnect{Reason: holder("server closing")})
	})

	c, err := Connect(context.Background(), Options{
		Host:        "127.0.0.1",
		Port:        port,
		Username:    "Steve",
		Protocol:    version.Minecraft_1_21_4.Protocol,
		JoinMessage: "hello everyone",
	}, logr.Discard())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	connected := requireEvent[ConnectedEvent](t, c)
	assert.Equal(t, "Steve", connected.Username)
	assert.Equal(t, steveID, connected.ID)

	assert.Equal(t, StateConfiguration, requireEvent[StateEvent](t, c).State)
	assert.Equal(t, StatePlay, requireEvent[StateEvent](t, c).State)

	msg := requireEvent[ChatEvent](t, c)
	assert.Equal(t, "welcome to chat", msg.Plain)
	assert.True(t, msg.System)
	assert.Equal(t, uuid.Nil, msg.Sender)

	disconnect := requireEvent[DisconnectEvent](t, c)
	require.NotNil(t, disconnect.Reason)
	assert.Equal(t, "server closing", chat.Plain(disconnect.Reason))

	closed := requireEvent[ClosedEvent](t, c)
	assert.NoError(t, closed.Err)
	requireClosed(t, c)

	require.NoError(t, <-done)
	assert.True(t, c.Closed())
}

// Versions below 1.20.2 have no configuration state: brand and
// settings go out right after the join game packet, and chat uses the
// JSON component packet.
func TestConnect_Pre1_20_2(t *testing.T) {
	alexID := uuid.New()
	port, done := runServer(t, func(sc *serverConn) error {
		if err := sc.acceptLogin("Alex"); err != nil {
			return err
		}
		if err := sc.write(&packet.ServerLoginSuccess{UUID: alexID, Username: "Alex"}); err != nil {
			return err
		}
		sc.setState(state.Play)

		if err := sc.write(&packet.JoinGame{}); err != nil {
			return err
		}
		brand, err := expectServerPacket[*packet.PluginMessage](sc)
		if err != nil {
			return err
		}
		if brand.Channel != packet.BrandChannel {
			return fmt.Errorf("expected brand channel, got %q", brand.Channel)
		}
		if _, err = expectServerPacket[*packet.ClientSettings](sc); err != nil {
			return err
		}
		join, err := expectServerPacket[*pchat.LegacyChat](sc)
		if err != nil {
			return err
		}
		if join.Message != "hello everyone" {
			return fmt.Errorf("expected join message, got %q", join.Message)
		}

		if err = sc.write(&pchat.LegacyChat{
			Message: `{"text":"hi there"}`,
			Type:    pchat.ChatMessageType,
			Sender:  alexID,
		}); err != nil {
			return err
		}
		return sc.write(&packet.Disconnect{Reason: holder("bye")})
	})

	c, err := Connect(context.Background(), Options{
		Host:        "127.0.0.1",
		Port:        port,
		Username:    "Alex",
		Protocol:    version.Minecraft_1_16_4.Protocol,
		JoinMessage: "hello everyone",
	}, logr.Discard())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	connected := requireEvent[ConnectedEvent](t, c)
	assert.Equal(t, "Alex", connected.Username)

	// No configuration state, the login success enters play directly.
	assert.Equal(t, StatePlay, requireEvent[StateEvent](t, c).State)

	msg := requireEvent[ChatEvent](t, c)
	assert.Equal(t, "hi there", msg.Plain)
	assert.False(t, msg.System)
	assert.Equal(t, alexID, msg.Sender)

	disconnect := requireEvent[DisconnectEvent](t, c)
	assert.Equal(t, "bye", chat.Plain(disconnect.Reason))
	requireEvent[ClosedEvent](t, c)
	requireClosed(t, c)

	require.NoError(t, <-done)
}

// A signed player message is rendered "<sender> message" like an
// undecorated server would show it.
func TestConnect_PlayerChat(t *testing.T) {
	bobID := uuid.New()
	port, done := runServer(t, func(sc *serverConn) error {
		if err := sc.acceptLogin("Steve"); err != nil {
			return err
		}
		if err := sc.write(&packet.ServerLoginSuccess{UUID: uuid.New(), Username: "Steve"}); err != nil {
			return err
		}
		if _, err := expectServerPacket[*packet.LoginAcknowledged](sc); err != nil {
			return err
		}
		if err := sc.runConfiguration(); err != nil {
			return err
		}
		if err := sc.write(&packet.JoinGame{}); err != nil {
			return err
		}
		if err := sc.write(&pchat.PlayerChat{
			Sender:     bobID,
			Message:    "hi",
			Timestamp:  time.Now(),
			SenderName: holder("Bob"),
		}); err != nil {
			return err
		}
		return sc.write(&packet.Disconnect{Reason: holder("bye")})
	})

	c, err := Connect(context.Background(), Options{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "Steve",
		Protocol: version.Minecraft_1_21_4.Protocol,
	}, logr.Discard())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	requireEvent[ConnectedEvent](t, c)
	assert.Equal(t, StateConfiguration, requireEvent[StateEvent](t, c).State)
	assert.Equal(t, StatePlay, requireEvent[StateEvent](t, c).State)

	msg := requireEvent[ChatEvent](t, c)
	assert.Equal(t, "<Bob> hi", msg.Plain)
	assert.False(t, msg.System)
	assert.Equal(t, bobID, msg.Sender)
	assert.Equal(t, "Bob", msg.SenderName)

	requireEvent[DisconnectEvent](t, c)
	requireEvent[ClosedEvent](t, c)
	requireClosed(t, c)

	require.NoError(t, <-done)
}

// A configured join message longer than the protocol limit goes out
// cut to the limit, not as an error.
func TestConnect_JoinMessageTruncated(t *testing.T) {
	long := strings.Repeat("x", pchat.MaxServerBoundMessageLength+50)
	port, done := runServer(t, func(sc *serverConn) error {
		if err := sc.acceptLogin("Steve"); err != nil {
			return err
		}
		if err := sc.write(&packet.ServerLoginSuccess{UUID: uuid.New(), Username: "Steve"}); err != nil {
			return err
		}
		if _, err := expectServerPacket[*packet.LoginAcknowledged](sc); err != nil {
			return err
		}
		if err := sc.runConfiguration(); err != nil {
			return err
		}
		if err := sc.write(&packet.JoinGame{}); err != nil {
			return err
		}
		join, err := expectServerPacket[*pchat.SessionPlayerChat](sc)
		if err != nil {
			return err
		}
		if join.Message != long[:pchat.MaxServerBoundMessageLength] {
			return fmt.Errorf("expected message cut to %d characters, got %d",
				pchat.MaxServerBoundMessageLength, len(join.Message))
		}
		return sc.write(&packet.Disconnect{Reason: holder("bye")})
	})

	c, err := Connect(context.Background(), Options{
		Host:        "127.0.0.1",
		Port:        port,
		Username:    "Steve",
		Protocol:    version.Minecraft_1_21_4.Protocol,
		JoinMessage: long,
	}, logr.Discard())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	requireEvent[ConnectedEvent](t, c)
	assert.Equal(t, StateConfiguration, requireEvent[StateEvent](t, c).State)
	assert.Equal(t, StatePlay, requireEvent[StateEvent](t, c).State)
	requireEvent[DisconnectEvent](t, c)
	requireEvent[ClosedEvent](t, c)
	requireClosed(t, c)

	require.NoError(t, <-done)
}

// Online mode: the server requests encryption, the client must join
// the session server with the shared secret's digest and then speak
// the stream cipher in both directions.
func TestConnect_OnlineMode(t *testing.T) {
	profileID := uuid.New()

	var (
		joinMu   sync.Mutex
		joinBody struct {
			AccessToken     string `json:"accessToken"`
			SelectedProfile string `json:"selectedProfile"`
			ServerID        string `json:"serverId"`
		}
	)
	sessionSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/session/minecraft/join") {
			http.NotFound(w, r)
			return
		}
		joinMu.Lock()
		defer joinMu.Unlock()
		if err := json.NewDecoder(r.Body).Decode(&joinBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(sessionSrv.Close)

	auther, err := auth.NewAuthenticator(nil)
	require.NoError(t, err)
	verifyToken := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	serverID := make(chan string, 1)

	port, done := runServer(t, func(sc *serverConn) error {
		if err := sc.acceptLogin("Steve"); err != nil {
			return err
		}

		if err := sc.write(&packet.EncryptionRequest{
			PublicKey:          auther.PublicKey(),
			VerifyToken:        verifyToken,
			ShouldAuthenticate: true,
		}); err != nil {
			return err
		}
		resp, err := expectServerPacket[*packet.EncryptionResponse](sc)
		if err != nil {
			return err
		}
		secret, err := auther.DecryptSharedSecret(resp.SharedSecret)
		if err != nil {
			return err
		}
		ok, err := auther.Verify(resp.VerifyToken, verifyToken)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("verify token mismatch")
		}
		id, err := auther.GenerateServerID(secret)
		if err != nil {
			return err
		}
		serverID <- id

		// Everything from here on travels encrypted.
		dr, err := codec.NewDecryptReader(sc.c, secret)
		if err != nil {
			return err
		}
		sc.dec.SetReader(dr)
		ew, err := codec.NewEncryptWriter(sc.c, secret)
		if err != nil {
			return err
		}
		sc.enc.SetWriter(ew)

		if err = sc.write(&packet.SetCompression{Threshold: 64}); err != nil {
			return err
		}
		if err = sc.enc.SetCompression(64, -1); err != nil {
			return err
		}
		sc.dec.SetCompressionThreshold(64)

		if err = sc.write(&packet.ServerLoginSuccess{UUID: profileID, Username: "Steve"}); err != nil {
			return err
		}
		if _, err = expectServerPacket[*packet.LoginAcknowledged](sc); err != nil {
			return err
		}
		if err = sc.runConfiguration(); err != nil {
			return err
		}
		if err = sc.write(&packet.JoinGame{}); err != nil {
			return err
		}
		return sc.write(&packet.Disconnect{Reason: holder("done")})
	})

	c, err := Connect(context.Background(), Options{
		Host:        "127.0.0.1",
		Port:        port,
		Username:    "Steve",
		Protocol:    version.Minecraft_1_21_4.Protocol,
		Profile:     profileID,
		AccessToken: "test-token",
		SessionService: &auth.SessionService{
			SessionServerURL: sessionSrv.URL,
			Client:           sessionSrv.Client(),
		},
	}, logr.Discard())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	connected := requireEvent[ConnectedEvent](t, c)
	assert.Equal(t, "Steve", connected.Username)
	assert.Equal(t, StateConfiguration, requireEvent[StateEvent](t, c).State)
	assert.Equal(t, StatePlay, requireEvent[StateEvent](t, c).State)
	assert.Equal(t, "done", chat.Plain(requireEvent[DisconnectEvent](t, c).Reason))
	requireEvent[ClosedEvent](t, c)

	require.NoError(t, <-done)

	joinMu.Lock()
	defer joinMu.Unlock()
	assert.Equal(t, "test-token", joinBody.AccessToken)
	assert.Equal(t, profileID.Undashed(), joinBody.SelectedProfile)
	assert.Equal(t, <-serverID, joinBody.ServerID)
}

// An offline client cannot answer an encryption request.
func TestConnect_OnlineModeServerOfflineClient(t *testing.T) {
	auther, err := auth.NewAuthenticator(nil)
	require.NoError(t, err)

	port, done := runServer(t, func(sc *serverConn) error {
		if err := sc.acceptLogin("Steve"); err != nil {
			return err
		}
		return sc.write(&packet.EncryptionRequest{
			PublicKey:          auther.PublicKey(),
			VerifyToken:        []byte{1, 2, 3, 4},
			ShouldAuthenticate: true,
		})
	})

	c, err := Connect(context.Background(), Options{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "Steve",
		Protocol: version.Minecraft_1_21_4.Protocol,
	}, logr.Discard())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	disconnect := requireEvent[DisconnectEvent](t, c)
	require.NotNil(t, disconnect.Reason)
	assert.Contains(t, chat.Plain(disconnect.Reason), "online mode")

	closed := requireEvent[ClosedEvent](t, c)
	require.Error(t, closed.Err)
	requireClosed(t, c)

	require.NoError(t, <-done)
}

func TestConnect_InvalidOptions(t *testing.T) {
	_, err := Connect(context.Background(), Options{}, logr.Discard())
	require.ErrorContains(t, err, "host")

	_, err = Connect(context.Background(), Options{Host: "localhost"}, logr.Discard())
	require.ErrorContains(t, err, "username")

	_, err = Connect(context.Background(), Options{
		Host: "localhost", Username: "Steve", Protocol: 1,
	}, logr.Discard())
	require.ErrorContains(t, err, "unsupported protocol")
}

func TestConnect_ServerClosesDuringLogin(t *testing.T) {
	port, done := runServer(t, func(sc *serverConn) error {
		if err := sc.acceptLogin("Steve"); err != nil {
			return err
		}
		return sc.write(&packet.DisconnectLogin{Reason: holder("You are banned")})
	})

	c, err := Connect(context.Background(), Options{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "Steve",
		Protocol: version.Minecraft_1_21_4.Protocol,
	}, logr.Discard())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	disconnect := requireEvent[DisconnectEvent](t, c)
	assert.Equal(t, "You are banned", chat.Plain(disconnect.Reason))
	requireEvent[ClosedEvent](t, c)
	requireClosed(t, c)

	require.NoError(t, <-done)
}
