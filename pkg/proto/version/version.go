// Package version names the Minecraft Java edition protocol versions the
// client engine supports, 1.16.4 (754) through 1.21.4 (769).
package version

import (
	"fmt"
	"strconv"

	"go.craftchat.dev/craftchat/pkg/proto"
)

var (
	Unknown          = &proto.Version{Protocol: -1, Names: s("Unknown")}
	Minecraft_1_16_4 = &proto.Version{Protocol: 754, Names: s("1.16.4", "1.16.5")}
	Minecraft_1_17   = &proto.Version{Protocol: 755, Names: s("1.17")}
	Minecraft_1_17_1 = &proto.Version{Protocol: 756, Names: s("1.17.1")}
	Minecraft_1_18   = &proto.Version{Protocol: 757, Names: s("1.18", "1.18.1")}
	Minecraft_1_18_2 = &proto.Version{Protocol: 758, Names: s("1.18.2")}
	Minecraft_1_19   = &proto.Version{Protocol: 759, Names: s("1.19")}
	Minecraft_1_19_1 = &proto.Version{Protocol: 760, Names: s("1.19.1", "1.19.2")}
	Minecraft_1_19_3 = &proto.Version{Protocol: 761, Names: s("1.19.3")}
	Minecraft_1_19_4 = &proto.Version{Protocol: 762, Names: s("1.19.4")}
	Minecraft_1_20   = &proto.Version{Protocol: 763, Names: s("1.20", "1.20.1")}
	Minecraft_1_20_2 = &proto.Version{Protocol: 764, Names: s("1.20.2")}
	Minecraft_1_20_3 = &proto.Version{Protocol: 765, Names: s("1.20.3", "1.20.4")}
	Minecraft_1_20_5 = &proto.Version{Protocol: 766, Names: s("1.20.5", "1.20.6")}
	Minecraft_1_21   = &proto.Version{Protocol: 767, Names: s("1.21", "1.21.1")}
	Minecraft_1_21_2 = &proto.Version{Protocol: 768, Names: s("1.21.2", "1.21.3")}
	Minecraft_1_21_4 = &proto.Version{Protocol: 769, Names: s("1.21.4")}

	// Versions ordered from lowest to highest.
	Versions = []*proto.Version{
		Minecraft_1_16_4,
		Minecraft_1_17, Minecraft_1_17_1,
		Minecraft_1_18, Minecraft_1_18_2,
		Minecraft_1_19, Minecraft_1_19_1, Minecraft_1_19_3, Minecraft_1_19_4,
		Minecraft_1_20, Minecraft_1_20_2, Minecraft_1_20_3, Minecraft_1_20_5,
		Minecraft_1_21, Minecraft_1_21_2, Minecraft_1_21_4,
	}
)

var ProtocolToVersion = func() map[proto.Protocol]*proto.Version {
	m := make(map[proto.Protocol]*proto.Version, len(Versions))
	for _, v := range Versions {
		m[v.Protocol] = v
	}
	return m
}()

var (
	// MinimumVersion is the lowest supported version.
	MinimumVersion = Versions[0]
	// MaximumVersion is the highest supported version.
	MaximumVersion = Versions[len(Versions)-1]
	// SupportedVersionsString is the supported versions range as a string.
	SupportedVersionsString = fmt.Sprintf("%s-%s", MinimumVersion, MaximumVersion)
)

// ByName returns the version with the given release name
// (e.g. "1.20.4") or nil if unknown.
func ByName(name string) *proto.Version {
	for _, v := range Versions {
		for _, n := range v.Names {
			if n == name {
				return v
			}
		}
	}
	return nil
}

// Protocol is proto.Protocol with additional helper methods.
type Protocol proto.Protocol

// Version gets the Version by the protocol id
// or returns the Unknown version if not found.
func (p Protocol) Version() *proto.Version {
	v, ok := ProtocolToVersion[proto.Protocol(p)]
	if !ok {
		v = Unknown
	}
	return v
}

func (p Protocol) String() string {
	v := p.Version()
	var str string
	if v == Unknown {
		str = strconv.Itoa(int(p))
	} else {
		str = fmt.Sprintf("%s(%d)", v.String(), p)
	}
	return str
}

// Supported returns true if the protocol is a
// supported Minecraft Java edition version.
func (p Protocol) Supported() bool {
	_, ok := ProtocolToVersion[proto.Protocol(p)]
	return ok
}

// helper func
func s(s ...string) []string { return s }
