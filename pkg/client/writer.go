package client

import (
	"bufio"
	"net"
	"time"

	"github.com/go-logr/logr"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/codec"
)

// writer writes serverbound packets to the connection.
type writer struct {
	log              logr.Logger
	writeTimeout     time.Duration
	compressionLevel int
	c                net.Conn // underlying connection
	writeBuf         *bufio.Writer
	*codec.Encoder
}

func newWriter(conn net.Conn, writeTimeout time.Duration, compressionLevel int, log logr.Logger) *writer {
	writeBuf := bufio.NewWriter(conn)
	return &writer{
		log:              log.WithName("writer"),
		writeTimeout:     writeTimeout,
		compressionLevel: compressionLevel,
		c:                conn,
		writeBuf:         writeBuf,
		Encoder:          codec.NewEncoder(writeBuf, proto.ServerBound, log.V(2)),
	}
}

func (w *writer) Flush() (err error) {
	// Handle err in case the connection is
	// already closed and can't write to.
	if err = w.c.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
		return err
	}
	// Must flush in sync with encoder, or we may get an
	// io.ErrShortWrite when flushing while encoder is already writing.
	return w.Encoder.Sync(w.writeBuf.Flush)
}

func (w *writer) SetCompressionThreshold(threshold int) error {
	return w.Encoder.SetCompression(threshold, w.compressionLevel)
}

func (w *writer) EnableEncryption(secret []byte) error {
	encryptWriter, err := codec.NewEncryptWriter(w.writeBuf, secret)
	if err != nil {
		return err
	}
	w.Encoder.SetWriter(encryptWriter)
	return nil
}
