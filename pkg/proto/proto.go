// Package proto defines the core types shared by the protocol packages:
// packets, packet contexts, directions and protocol versions.
package proto

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// ErrDecoderLeftBytes indicates a packet was known and successfully decoded
// by its registered decoder, but the decoder has not read all of the
// packet's bytes.
//
// This may happen in cases where
//   - the decoder has a bug
//   - the decoder does not handle a field layout change in a newer
//     protocol version of the packet
//   - the server sent trailing bytes the packet's decoder does not know about
var ErrDecoderLeftBytes = errors.New("decoder did not read all bytes of packet")

// PacketDecoder decodes packets from an underlying source.
type PacketDecoder interface {
	Decode() (*PacketContext, error)
}

// PacketWriter can write packets.
type PacketWriter interface {
	WritePacket(Packet) error
}

// Packet represents a packet type of the Minecraft Java edition.
//
// A Packet supports multiple protocol versions up- and/or downwards by
// testing the Protocol contained in the passed PacketContext.
//
// The passed PacketContext is read-only and must not be modified.
type Packet interface {
	// Encode encodes the packet data into the writer.
	Encode(c *PacketContext, wr io.Writer) error
	// Decode reads the expected data from the reader into the packet.
	Decode(c *PacketContext, rd io.Reader) (err error)
}

// PacketContext carries context information for a received packet or a
// packet that is about to be sent.
type PacketContext struct {
	Direction Direction // The direction the packet is bound to.
	Protocol  Protocol  // The protocol version of the packet.
	PacketID  PacketID  // The ID of the packet, always set.

	// Packet is the decoded type found by PacketID in the connection's
	// current state registry, or nil if the PacketID is unknown.
	Packet Packet

	// Payload is the unencrypted and uncompressed form of packet id + data.
	// It contains the actual received bytes, which may be more than what
	// the Packet's Decode read.
	Payload []byte // Empty when encoding.

	// BytesRead is the total number of bytes read off the wire for this
	// packet, before decompression.
	BytesRead int
}

// KnownPacket indicates whether the PacketID is known
// in the connection's current state registry.
func (c *PacketContext) KnownPacket() bool {
	return c != nil && c.Packet != nil
}

// PacketID identifies a packet within a state and protocol version.
type PacketID int

func (id PacketID) String() string {
	return fmt.Sprintf("%#x", int(id))
}

func (c *PacketContext) String() string {
	return fmt.Sprintf("PacketContext:direction=%s,protocol=%s,"+
		"known=%t,id=%s,type=%s,payloadlen=%d",
		c.Direction, c.Protocol, c.KnownPacket(), c.PacketID,
		reflect.TypeOf(c.Packet), len(c.Payload))
}

// Direction is the direction a packet is bound to.
//   - Receiving a packet from the server is ClientBound.
//   - Sending a packet to the server is ServerBound.
type Direction uint8

// Available packet bound directions.
const (
	ClientBound Direction = iota // A packet sent by the server to the client.
	ServerBound                  // A packet sent by the client to the server.
)

func (d Direction) String() string {
	switch d {
	case ServerBound:
		return "ServerBound"
	case ClientBound:
		return "ClientBound"
	}
	return "UnknownBound"
}

// Version is a named protocol version.
type Version struct {
	Protocol          // The protocol number of the version.
	Names    []string // The vanilla version names carrying this protocol (at least one).
}

// FirstName returns the user-friendly name of
// the version this protocol was introduced in.
func (v *Version) FirstName() string {
	if len(v.Names) == 0 {
		return ""
	}
	return v.Names[0]
}

// LastName returns the user-friendly name of
// the last version carrying this protocol.
func (v *Version) LastName() string {
	if len(v.Names) == 0 {
		return ""
	}
	return v.Names[len(v.Names)-1]
}

// String returns the user-friendly name of this version.
// If this version has multiple names it returns {first}-{last}.
func (v Version) String() string {
	if len(v.Names) > 1 {
		return fmt.Sprintf("%s-%s", v.FirstName(), v.LastName())
	}
	return v.FirstName()
}

// Protocol is a numeric protocol version id as specified by Mojang
// (e.g. 754 for 1.16.4).
type Protocol int

func (p Protocol) String() string {
	return strconv.Itoa(int(p))
}

// GreaterEqual is true when this Protocol is
// greater or equal than another Version's Protocol.
func (p Protocol) GreaterEqual(then *Version) bool {
	return p >= then.Protocol
}

// LowerEqual is true when this Protocol is
// lower or equal than another Version's Protocol.
func (p Protocol) LowerEqual(then *Version) bool {
	return p <= then.Protocol
}

// Lower is true when this Protocol is
// lower than another Version's Protocol.
func (p Protocol) Lower(then *Version) bool {
	return p < then.Protocol
}

// Greater is true when this Protocol is
// greater than another Version's Protocol.
func (p Protocol) Greater(then *Version) bool {
	return p > then.Protocol
}

// PacketType is the non-pointer reflect.Type of a packet.
// Use the TypeOf helper function for convenience.
type PacketType reflect.Type

// TypeOf returns the non-pointer type of p.
func TypeOf(p Packet) PacketType {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
