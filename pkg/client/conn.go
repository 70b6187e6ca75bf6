// Package client implements the protocol client: connecting, logging
// in, and driving a chat session over a server connection.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/atomic"

	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/state"
	"go.craftchat.dev/craftchat/pkg/util/errs"
)

// sessionHandler handles received packets from the connection.
//
// Since connections transition between states packets need to be
// handled differently, this behaviour is divided between session
// handlers.
type sessionHandler interface {
	HandlePacket(pc *proto.PacketContext) // Called to handle incoming known or unknown packet.
	Disconnected()                        // Called when connection is closing, to teardown the session.

	Activated()   // Called when the connection is now managed by this sessionHandler.
	Deactivated() // Called when the connection is no longer managed by this sessionHandler.
}

// ErrClosedConn indicates a connection is already closed.
var ErrClosedConn = errors.New("connection is closed")

// forceCloseDelay is how long a graceful close waits for the server to
// finish the connection before tearing it down.
const forceCloseDelay = time.Second

// Conn is an established server connection delivering events until
// closed. All exported methods are safe for concurrent use.
type Conn struct {
	opts *Options
	log  logr.Logger

	c  net.Conn
	rd *reader
	wr *writer

	ctx             context.Context // is canceled when connection closed
	cancelCtx       context.CancelFunc
	closeOnce       sync.Once
	knownDisconnect atomic.Bool // Silences disconnect (any error is known)

	events    chan Event
	eventsMu  sync.Mutex // serializes sends and the final close
	eventsEnd bool

	closeErr         atomic.Error
	disconnectReason atomic.Pointer[chat.Component]
	playEntered      atomic.Bool // first transition into play happened

	mu       sync.RWMutex // Protects following fields
	state    *state.Registry
	protocol proto.Protocol

	sessionHandlerMu struct {
		sync.RWMutex
		sessionHandler // The current session handler.
	}
}

// Events returns the connection's event channel. It is closed after a
// final ClosedEvent once the connection is gone.
func (c *Conn) Events() <-chan Event { return c.events }

// Context returns the context of the connection.
// It is canceled on Close.
func (c *Conn) Context() context.Context { return c.ctx }

// Closed returns true if the connection is closed.
func (c *Conn) Closed() bool { return c.ctx.Err() != nil }

// Protocol returns the protocol version of the connection.
func (c *Conn) Protocol() proto.Protocol {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.protocol
}

// State returns the current state registry of the connection.
func (c *Conn) State() *state.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// RemoteAddr returns the remote address of the connection.
func (c *Conn) RemoteAddr() net.Addr { return c.c.RemoteAddr() }

func (c *Conn) setState(s *state.Registry) {
	c.mu.Lock()
	c.state = s
	c.rd.SetState(s)
	c.wr.SetState(s)
	c.mu.Unlock()
}

func (c *Conn) setProtocol(p proto.Protocol) {
	c.mu.Lock()
	c.protocol = p
	c.rd.SetProtocol(p)
	c.wr.SetProtocol(p)
	c.mu.Unlock()
}

func (c *Conn) sessionHandler() sessionHandler {
	c.sessionHandlerMu.RLock()
	defer c.sessionHandlerMu.RUnlock()
	return c.sessionHandlerMu.sessionHandler
}

// setSessionHandler sets the session handler for this connection and
// calls Deactivated() on the old and Activated() on the new handler.
func (c *Conn) setSessionHandler(handler sessionHandler) {
	c.sessionHandlerMu.Lock()
	defer c.sessionHandlerMu.Unlock()
	if c.sessionHandlerMu.sessionHandler != nil {
		c.sessionHandlerMu.sessionHandler.Deactivated()
	}
	c.sessionHandlerMu.sessionHandler = handler
	handler.Activated()
}

// fire delivers an event to the consumer in arrival order.
func (c *Conn) fire(e Event) {
	c.eventsMu.Lock()
	defer c.eventsMu.Unlock()
	if c.eventsEnd {
		return
	}
	if _, ok := e.(ClosedEvent); ok {
		c.eventsEnd = true
		c.events <- e
		close(c.events)
		return
	}
	c.events <- e
}

// fireError surfaces a non-fatal error to the consumer.
func (c *Conn) fireError(err error) {
	if err == nil || c.Closed() {
		return
	}
	c.log.V(1).Info("connection error", "error", err.Error())
	c.fire(ErrorEvent{Err: err})
}

// startReadLoop is the main goroutine of this connection and reads
// packets to pass them further to the current sessionHandler.
// Close will be called on method return.
func (c *Conn) startReadLoop() {
	// Make sure to close connection on return, if not already closed
	defer func() { _ = c.closeKnown(false) }()

	next := func() bool {
		// Read next packet from underlying connection.
		packetCtx, err := c.rd.ReadPacket()
		if err != nil {
			if errors.Is(err, ErrReadPacketRetry) {
				// Sleep briefly and try again
				time.Sleep(time.Millisecond * 5)
				return true
			}
			if !c.Closed() && !errs.Silent(err) {
				c.closeErr.Store(err)
			}
			return false
		}

		// Handle packet by connection's session handler.
		c.sessionHandler().HandlePacket(packetCtx)
		return true
	}

	// Using two for loops to optimize for calling "defer, recover" less often
	// and be able to continue the loop in case of panic.

	cond := func() bool { return !c.Closed() && next() }
	loop := func() (ok bool) {
		defer func() { // Catch any panics
			if r := recover(); r != nil {
				c.log.Error(nil, "recovered panic in packets read loop", "panic", r)
				ok = true // recovered, keep going
			}
		}()
		for cond() {
		}
		return false
	}

	for loop() {
	}
}

func (c *Conn) Flush() error {
	err := c.wr.Flush()
	if err != nil {
		c.closeOnErr(err)
	}
	return err
}

// WritePacket writes a packet to the connection's write buffer and
// flushes the complete buffer afterwards.
//
// The connection will be closed on any error encountered!
func (c *Conn) WritePacket(p proto.Packet) (err error) {
	if c.Closed() {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	if err = c.BufferPacket(p); err != nil {
		return err
	}
	return c.Flush()
}

// Write encodes and writes payload (packet id + data) to the
// connection's write buffer and flushes afterwards.
func (c *Conn) Write(payload []byte) (err error) {
	if c.Closed() {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	if _, err = c.wr.Write(payload); err != nil {
		return err
	}
	return c.Flush()
}

// BufferPacket writes a packet into the connection's write buffer.
func (c *Conn) BufferPacket(packet proto.Packet) (err error) {
	if c.Closed() {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	_, err = c.wr.WritePacket(packet)
	return err
}

func (c *Conn) closeOnErr(err error) {
	if err == nil {
		return
	}
	_ = c.Close()
	if err == ErrClosedConn {
		return // Don't log this error
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && errs.IsConnClosedErr(opErr.Err) {
		return // Don't log this error
	}
	c.log.V(1).Info("error writing packet, closing connection", "err", err)
}

// Close closes the connection, if not already, and calls the session
// handler's Disconnected. It is okay to call this method multiple times.
func (c *Conn) Close() error {
	return c.closeKnown(true)
}

func (c *Conn) closeKnown(markKnown bool) (err error) {
	alreadyClosed := true
	c.closeOnce.Do(func() {
		alreadyClosed = false
		if markKnown {
			c.knownDisconnect.Store(true)
		}

		c.cancelCtx()

		// Flush what we have and signal the server we are done writing
		// before forcing the teardown.
		_ = c.wr.Flush()
		if tcp, ok := c.c.(*net.TCPConn); ok {
			_ = tcp.CloseWrite()
			time.AfterFunc(forceCloseDelay, func() { _ = c.c.Close() })
		} else {
			err = c.c.Close()
		}

		if sh := c.sessionHandler(); sh != nil {
			sh.Disconnected()
		}

		if reason := c.disconnectReason.Load(); reason != nil {
			c.fire(DisconnectEvent{Reason: reason})
		}
		c.fire(ClosedEvent{Err: c.closeErr.Load()})
		if !c.knownDisconnect.Load() {
			c.log.Info("connection closed", "server", c.opts.ServerName)
		}
	})
	if alreadyClosed {
		err = ErrClosedConn
	}
	return err
}

// closeWith closes the connection after writing the packet.
func (c *Conn) closeWith(packet proto.Packet) (err error) {
	if c.Closed() {
		return ErrClosedConn
	}
	defer func() {
		err = c.Close()
	}()
	_ = c.WritePacket(packet)
	return
}

func (c *Conn) String() string {
	return fmt.Sprintf("client.Conn{server: %s, addr: %s}", c.opts.ServerName, c.c.RemoteAddr())
}
