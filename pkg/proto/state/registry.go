// Package state keeps the version-indexed packet id registries for each
// connection state. The registries are the single source of truth for
// which numeric id a semantic packet carries at a given protocol version;
// adding support for a new version means appending table rows in
// states.go, not new code paths.
package state

import (
	"fmt"
	"reflect"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/version"
)

// Registry stores the server- and clientbound packets of one connection state.
type Registry struct {
	State
	ServerBound *PacketRegistry
	ClientBound *PacketRegistry
}

func NewRegistry(state State) *Registry {
	return &Registry{
		State:       state,
		ServerBound: NewPacketRegistry(proto.ServerBound),
		ClientBound: NewPacketRegistry(proto.ClientBound),
	}
}

// PacketRegistry stores the packets of one direction, per protocol version.
type PacketRegistry struct {
	Direction proto.Direction                      // The direction the registered packets are bound to.
	Protocols map[proto.Protocol]*ProtocolRegistry // The protocol versions.
	// Whether to fall back to the minimum protocol version
	// in case a protocol could not be found.
	Fallback bool
}

func NewPacketRegistry(direction proto.Direction) *PacketRegistry {
	r := &PacketRegistry{
		Direction: direction,
		Protocols: map[proto.Protocol]*ProtocolRegistry{},
		Fallback:  true, // fallback by default
	}
	for _, ver := range version.Versions {
		r.Protocols[ver.Protocol] = &ProtocolRegistry{
			Protocol:    ver.Protocol,
			PacketIDs:   map[proto.PacketID]proto.PacketType{},
			PacketTypes: map[proto.PacketType]proto.PacketID{},
		}
	}
	return r
}

// ProtocolRegistry gets the ProtocolRegistry for a protocol.
func (p *PacketRegistry) ProtocolRegistry(protocol proto.Protocol) *ProtocolRegistry {
	r := p.Protocols[protocol]
	if r == nil && p.Fallback {
		return p.ProtocolRegistry(version.MinimumVersion.Protocol)
	}
	return r // nil if not found
}

// ProtocolRegistry stores the packets of a single protocol version.
type ProtocolRegistry struct {
	Protocol    proto.Protocol                      // The protocol version of the registered packets.
	PacketIDs   map[proto.PacketID]proto.PacketType // Gets packet type by packet id.
	PacketTypes map[proto.PacketType]proto.PacketID // Gets packet id by packet type.
}

// PacketID gets the packet id for the given packet type at this protocol
// version. found is false when the packet does not exist at this version
// and must not be sent.
func (r *ProtocolRegistry) PacketID(of proto.Packet) (id proto.PacketID, found bool) {
	id, found = r.PacketTypes[proto.TypeOf(of)]
	return
}

// CreatePacket returns a new zero valued instance of the type
// of the mapped packet id, or nil if unknown at this version.
func (r *ProtocolRegistry) CreatePacket(id proto.PacketID) proto.Packet {
	packetType, ok := r.PacketIDs[id]
	if !ok {
		return nil
	}
	p, ok := reflect.New(packetType).Interface().(proto.Packet)
	if !ok {
		return nil
	}
	return p
}

// Register registers a packet type with the id it carries in each
// protocol version range. Mappings must be given in ascending version
// order; each mapping is valid from its version up to (excluding) the
// next mapping's version, the last one up to the maximum version unless
// it was created with ml to end earlier.
func (p *PacketRegistry) Register(packetOf proto.Packet, mappings ...*PacketMapping) {
	packetType := proto.TypeOf(packetOf)

	var (
		next *PacketMapping
		from proto.Protocol
		to   proto.Protocol
	)
	for i, current := range mappings {
		from = current.Protocol
		lastValid := current.LastValidProtocol
		if lastValid != 0 {
			if next != current && i != len(mappings)-1 {
				panic("cannot add a mapping after the last valid mapping")
			}
			if from > lastValid {
				panic("last valid protocol version is lower than the mapping's version")
			}
		}
		if i < len(mappings)-1 {
			next = mappings[i+1]
			to = next.Protocol
		} else {
			next = current
			to = version.MaximumVersion.Protocol
		}

		if from >= to && from != version.MaximumVersion.Protocol {
			panic(fmt.Sprintf("next mapping version (%d) should be higher than the current (%d)", to, from))
		}

		versionRange(version.Versions, from, to, func(protocol proto.Protocol) bool {
			if protocol == to && next != current {
				return false
			}
			if lastValid != 0 && protocol > lastValid {
				return false // packet removed after lastValid
			}
			registry, ok := p.Protocols[protocol]
			if !ok {
				panic(fmt.Sprintf("unknown protocol version %d", current.Protocol))
			}

			if _, ok = registry.PacketIDs[current.ID]; ok {
				panic(fmt.Sprintf("cannot register packet type %T with id %#x for "+
					"protocol %d because another packet is already registered", packetOf, current.ID, registry.Protocol))
			}
			if _, ok = registry.PacketTypes[packetType]; ok {
				panic(fmt.Sprintf("%T is already registered for protocol %d", packetOf, registry.Protocol))
			}
			registry.PacketIDs[current.ID] = packetType
			registry.PacketTypes[packetType] = current.ID
			return true
		})
	}
}

// FromDirection returns the protocol registry of a state for the given
// direction and protocol version.
func FromDirection(direction proto.Direction, state *Registry, protocol proto.Protocol) *ProtocolRegistry {
	if direction == proto.ServerBound {
		return state.ServerBound.ProtocolRegistry(protocol)
	}
	return state.ClientBound.ProtocolRegistry(protocol)
}

// PacketMapping is a table row: the id a packet carries starting at a
// protocol version, optionally ending at LastValidProtocol.
type PacketMapping struct {
	ID                proto.PacketID
	Protocol          proto.Protocol
	LastValidProtocol proto.Protocol // 0 = valid up to the next mapping / maximum
}

func m(id proto.PacketID, version *proto.Version) *PacketMapping {
	return &PacketMapping{ID: id, Protocol: version.Protocol}
}

// ml creates a mapping that is only valid from version up to and
// including lastValid; the packet does not exist afterwards.
func ml(id proto.PacketID, version, lastValid *proto.Version) *PacketMapping {
	return &PacketMapping{ID: id, Protocol: version.Protocol, LastValidProtocol: lastValid.Protocol}
}

func versionRange(
	versions []*proto.Version,
	from, to proto.Protocol,
	fn func(p proto.Protocol) bool,
) {
	var inRange bool
	for _, ver := range versions {
		if ver.Protocol == from {
			inRange = true
		} else if ver.Protocol == to {
			fn(ver.Protocol)
			return
		}
		if inRange {
			if !fn(ver.Protocol) {
				return
			}
		}
	}
}
