package client

import (
	"errors"
	"fmt"
	"time"

	"go.craftchat.dev/craftchat/pkg/auth"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// State is the coarse connection state as seen by event consumers.
type State int

const (
	StateLogin State = iota
	StateConfiguration
	StatePlay
)

func (s State) String() string {
	switch s {
	case StateLogin:
		return "login"
	case StateConfiguration:
		return "configuration"
	case StatePlay:
		return "play"
	}
	return "unknown"
}

// Options is the immutable per-connection configuration.
type Options struct {
	// ServerName is a display name used in logs and events only.
	ServerName string
	// Host and Port of the server. Port 0 means the default 25565;
	// hostname targets without an explicit port get SRV resolved.
	Host string
	Port uint16
	// Username sent in the login start packet.
	Username string
	// Protocol is the protocol version to speak.
	// The zero value means the newest supported version.
	Protocol proto.Protocol

	// Profile is the account's profile id, required for online mode
	// on 1.20.2 and newer and for session joining.
	Profile uuid.UUID
	// AccessToken enables online mode. Empty means offline: an
	// encryption request from the server then fails the connection.
	AccessToken string
	// Certificate is the chat signing certificate for 1.19+.
	// Optional; without it chat is sent unsigned.
	Certificate *auth.Certificate

	// SessionService overrides the session service used for the
	// encryption handshake's join call. Nil means the official one.
	SessionService *auth.SessionService

	// KeepAliveTimeout is the idle deadline after which a silent
	// connection is considered dead. Defaults to 20s.
	KeepAliveTimeout time.Duration

	// JoinMessage and JoinCommand are sent once on the first
	// transition into play. The command is sent without the slash.
	JoinMessage string
	JoinCommand string

	// AutoRespawn requests a respawn when the player dies.
	AutoRespawn bool

	// Locale reported in client settings, e.g. "en_US".
	Locale string
	// ViewDistance reported in client settings.
	ViewDistance byte
}

const defaultKeepAliveTimeout = 20 * time.Second

func (o *Options) validate() error {
	if o.Host == "" {
		return errors.New("options misses host")
	}
	if o.Username == "" {
		return errors.New("options misses username")
	}
	if o.Protocol != 0 {
		if _, ok := version.ProtocolToVersion[o.Protocol]; !ok {
			return fmt.Errorf("unsupported protocol version %d", o.Protocol)
		}
	}
	return nil
}

func (o *Options) protocol() proto.Protocol {
	if o.Protocol == 0 {
		return version.MaximumVersion.Protocol
	}
	return o.Protocol
}

func (o *Options) port() uint16 {
	if o.Port == 0 {
		return 25565
	}
	return o.Port
}

func (o *Options) keepAliveTimeout() time.Duration {
	if o.KeepAliveTimeout == 0 {
		return defaultKeepAliveTimeout
	}
	return o.KeepAliveTimeout
}

func (o *Options) locale() string {
	if o.Locale == "" {
		return "en_US"
	}
	return o.Locale
}

func (o *Options) viewDistance() byte {
	if o.ViewDistance == 0 {
		return 8
	}
	return o.ViewDistance
}

// OnlineMode reports whether the connection can answer an encryption
// request.
func (o *Options) OnlineMode() bool { return o.AccessToken != "" }
