package client

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-logr/logr"

	"go.craftchat.dev/craftchat/pkg/auth"
	"go.craftchat.dev/craftchat/pkg/ping"
	"go.craftchat.dev/craftchat/pkg/proto/packet"
	"go.craftchat.dev/craftchat/pkg/proto/state"
	"go.craftchat.dev/craftchat/pkg/proto/version"
)

const (
	// eventBufferSize bounds how far the reader may run ahead of the
	// event consumer before blocking.
	eventBufferSize = 256

	defaultCompressionLevel = -1 // zlib default
)

// Connect resolves, dials and logs into the server described by opts.
// The returned connection delivers events on Events until closed.
// The context bounds the dial only; cancel the connection via Close.
func Connect(ctx context.Context, opts Options, log logr.Logger) (*Conn, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	host, port := opts.Host, opts.port()
	if opts.Port == 0 && net.ParseIP(host) == nil {
		// Only hostname targets without an explicit port get SRV resolved.
		resolver := &ping.Resolver{}
		host, port = resolver.Resolve(logr.NewContext(ctx, log), host, port)
	}

	var d net.Dialer
	rawConn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s:%d: %w", host, port, err)
	}

	c := newConn(&opts, rawConn, log)

	// Handshake and login start are written before the read loop runs,
	// the server answers nothing until both arrived.
	protocol := opts.protocol()
	err = c.BufferPacket(&packet.Handshake{
		ProtocolVersion: int(protocol),
		ServerAddress:   host,
		Port:            int(port),
		NextStatus:      packet.LoginIntent,
	})
	if err == nil {
		c.setState(state.Login)
		c.setProtocol(protocol)
		err = c.WritePacket(&packet.ServerLogin{
			Username: opts.Username,
			HolderID: opts.Profile,
		})
	}
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("error writing login handshake: %w", err)
	}

	c.setSessionHandler(newLoginSessionHandler(c))
	go c.startReadLoop()
	return c, nil
}

func newConn(opts *Options, rawConn net.Conn, log logr.Logger) *Conn {
	name := opts.ServerName
	if name == "" {
		name = rawConn.RemoteAddr().String()
	}
	log = log.WithName("conn").WithValues("server", name)

	ctx, cancel := context.WithCancel(logr.NewContext(context.Background(), log))
	readTimeout := opts.keepAliveTimeout()
	c := &Conn{
		opts:      opts,
		log:       log,
		c:         rawConn,
		ctx:       ctx,
		cancelCtx: cancel,
		rd:        newReader(rawConn, readTimeout, log),
		wr:        newWriter(rawConn, 30*time.Second, defaultCompressionLevel, log),
		events:    make(chan Event, eventBufferSize),
		state:     state.Handshake,
		protocol:  version.MinimumVersion.Protocol,
	}
	return c
}

func (c *Conn) sessionService() *auth.SessionService {
	if c.opts.SessionService != nil {
		return c.opts.SessionService
	}
	return &auth.SessionService{}
}
