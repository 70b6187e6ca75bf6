package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/codec"
	"go.craftchat.dev/craftchat/pkg/util/errs"
)

// ErrReadPacketRetry is returned by readPacket when the reader should
// retry reading the next packet.
var ErrReadPacketRetry = errors.New("error reading packet, retry")

// reader reads clientbound packets off the connection.
type reader struct {
	log         logr.Logger
	readTimeout time.Duration
	c           net.Conn // underlying connection
	readBuf     *bufio.Reader
	*codec.Decoder
}

func newReader(conn net.Conn, readTimeout time.Duration, log logr.Logger) *reader {
	readBuf := bufio.NewReader(conn)
	return &reader{
		c:           conn,
		readTimeout: readTimeout,
		log:         log.WithName("reader"),
		readBuf:     readBuf,
		Decoder:     codec.NewDecoder(readBuf, proto.ClientBound, log.V(2)),
	}
}

func (r *reader) ReadPacket() (*proto.PacketContext, error) {
	// The deadline doubles as the keep-alive idle timeout: a healthy
	// server sends a keep-alive well within it.
	_ = r.c.SetReadDeadline(time.Now().Add(r.readTimeout))

	packetCtx, err := r.Decode()
	if err != nil && !errors.Is(err, proto.ErrDecoderLeftBytes) { // Ignore this error.
		if r.handleReadErr(err) {
			r.log.V(1).Info("error reading packet, recovered", "error", err)
			return nil, ErrReadPacketRetry
		}
		r.log.V(1).Info("error reading packet, closing connection", "error", err)
		return nil, err
	}
	return packetCtx, nil
}

// handles error when read the next packet
func (r *reader) handleReadErr(err error) (recoverable bool) {
	var silentErr *errs.SilentError
	if errors.As(err, &silentErr) {
		return false
	}
	// Immediately retry for EAGAIN
	if errors.Is(err, syscall.EAGAIN) {
		return true
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		if netErr.Temporary() {
			// Immediately retry for temporary network errors
			return true
		} else if netErr.Timeout() {
			// Read timeout, disconnect
			r.log.Error(err, "read timeout")
			return false
		} else if errs.IsConnClosedErr(netErr.Err) {
			// Connection is already closed
			return false
		}
	}
	// Immediately break for known unrecoverable errors
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.Canceled) ||
		errors.Is(err, io.ErrNoProgress) || errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.ErrShortBuffer) || errors.Is(err, syscall.EBADF) ||
		strings.Contains(err.Error(), "use of closed file") {
		return false
	}
	r.log.Error(err, "error reading next packet, unrecoverable and closing connection")
	return false
}

func (r *reader) EnableEncryption(secret []byte) error {
	decryptReader, err := codec.NewDecryptReader(r.readBuf, secret)
	if err != nil {
		return err
	}
	r.Decoder.SetReader(decryptReader)
	return nil
}
