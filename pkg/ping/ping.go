package ping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/codec"
	"go.craftchat.dev/craftchat/pkg/proto/packet"
	"go.craftchat.dev/craftchat/pkg/proto/state"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/proto/version"
)

const defaultTimeout = time.Second * 5

// Pinger performs server list pings.
type Pinger struct {
	// Dialer used to open the connection.
	Dialer net.Dialer
	// Protocol announced in the handshake.
	// The zero value means the newest supported version.
	Protocol proto.Protocol
	// Timeout bounds the whole ping when the context has no deadline.
	Timeout time.Duration
}

// Ping performs a modern server list ping against host:port and
// returns the status response and the measured round-trip latency.
func (p *Pinger) Ping(ctx context.Context, host string, port uint16) (*ServerPing, time.Duration, error) {
	log := logr.FromContextOrDiscard(ctx).WithName("ping")

	conn, err := p.dial(ctx, host, port)
	if err != nil {
		return nil, 0, fmt.Errorf("error connecting to %s:%d: %w", host, port, err)
	}
	defer func() { _ = conn.Close() }()

	protocol := p.Protocol
	if protocol == 0 {
		protocol = version.MaximumVersion.Protocol
	}

	enc := codec.NewEncoder(conn, proto.ServerBound, log)
	dec := codec.NewDecoder(conn, proto.ClientBound, log)

	_, err = enc.WritePacket(&packet.Handshake{
		ProtocolVersion: int(protocol),
		ServerAddress:   host,
		Port:            int(port),
		NextStatus:      packet.StatusIntent,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error writing handshake: %w", err)
	}
	enc.SetState(state.Status)
	dec.SetState(state.Status)
	enc.SetProtocol(protocol)
	dec.SetProtocol(protocol)

	if _, err = enc.WritePacket(&packet.StatusRequest{}); err != nil {
		return nil, 0, fmt.Errorf("error writing status request: %w", err)
	}
	pk, err := decodeExpect[*packet.StatusResponse](dec)
	if err != nil {
		return nil, 0, err
	}
	pong := new(ServerPing)
	if err = json.Unmarshal([]byte(pk.Status), pong); err != nil {
		return nil, 0, fmt.Errorf("error decoding status response: %w", err)
	}

	// Measure latency with the ping/pong exchange.
	start := time.Now()
	if _, err = enc.WritePacket(&packet.StatusPing{RandomID: start.UnixMilli()}); err != nil {
		return nil, 0, fmt.Errorf("error writing ping: %w", err)
	}
	if _, err = decodeExpect[*packet.StatusPing](dec); err != nil {
		return nil, 0, err
	}
	return pong, time.Since(start), nil
}

func decodeExpect[T proto.Packet](dec *codec.Decoder) (T, error) {
	var zero T
	pc, err := dec.Decode()
	if err != nil {
		return zero, fmt.Errorf("error decoding packet: %w", err)
	}
	pk, ok := pc.Packet.(T)
	if !ok {
		return zero, fmt.Errorf("expected %T, got packet id %s", zero, pc.PacketID)
	}
	return pk, nil
}

func (p *Pinger) dial(ctx context.Context, host string, port uint16) (net.Conn, error) {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	conn, err := p.Dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}
	return conn, nil
}

// LegacyPong is the response of a pre-Netty server list ping.
type LegacyPong struct {
	ProtocolVersion int
	ServerVersion   string
	MOTD            string
	OnlinePlayers   int
	MaxPlayers      int
}

// PingLegacy performs the 1.6 era 0xFE ping, understood by servers of
// any age including modern ones.
func (p *Pinger) PingLegacy(ctx context.Context, host string, port uint16) (*LegacyPong, error) {
	conn, err := p.dial(ctx, host, port)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s:%d: %w", host, port, err)
	}
	defer func() { _ = conn.Close() }()

	if err = writeLegacyPing(conn, host, port); err != nil {
		return nil, fmt.Errorf("error writing legacy ping: %w", err)
	}

	id, err := util.ReadByte(conn)
	if err != nil {
		return nil, fmt.Errorf("error reading legacy pong: %w", err)
	}
	if id != 0xFF {
		return nil, fmt.Errorf("expected kick packet id 0xFF, got %#x", id)
	}
	s, err := util.ReadUTF16BE(conn)
	if err != nil {
		return nil, fmt.Errorf("error reading legacy pong body: %w", err)
	}
	return parseLegacyPong(s)
}

func writeLegacyPing(conn net.Conn, host string, port uint16) error {
	// 0xFE 0x01 0xFA then a plugin message named MC|PingHost carrying
	// protocol version, host and port.
	if err := util.WriteRawBytes(conn, []byte{0xFE, 0x01, 0xFA}); err != nil {
		return err
	}
	if err := util.WriteUTF16BE(conn, "MC|PingHost"); err != nil {
		return err
	}
	// Remaining length: 1 (protocol) + 2 (host length) + utf16 host + 4 (port).
	if err := util.WriteInt16(conn, int16(7+len(host)*2)); err != nil {
		return err
	}
	if err := util.WriteUint8(conn, 74); err != nil { // 1.6.2 protocol
		return err
	}
	if err := util.WriteUTF16BE(conn, host); err != nil {
		return err
	}
	return util.WriteInt32(conn, int32(port))
}

func parseLegacyPong(s string) (*LegacyPong, error) {
	if !strings.HasPrefix(s, "§1\x00") {
		return nil, errors.New("legacy pong misses §1 prefix")
	}
	fields := strings.Split(strings.TrimPrefix(s, "§1\x00"), "\x00")
	if len(fields) != 5 {
		return nil, fmt.Errorf("legacy pong has %d fields, want 5", len(fields))
	}
	protocol, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("error parsing protocol version %q: %w", fields[0], err)
	}
	online, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("error parsing online players %q: %w", fields[3], err)
	}
	maxPlayers, err := strconv.Atoi(fields[4])
	if err != nil {
		return nil, fmt.Errorf("error parsing max players %q: %w", fields[4], err)
	}
	return &LegacyPong{
		ProtocolVersion: protocol,
		ServerVersion:   fields[1],
		MOTD:            fields[2],
		OnlinePlayers:   online,
		MaxPlayers:      maxPlayers,
	}, nil
}
