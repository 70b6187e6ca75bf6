// Package config holds the client configuration read in with Viper
// from files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/configutil"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
	"go.craftchat.dev/craftchat/pkg/util/validation"
)

// DefaultConfig is a default Config.
var DefaultConfig = Config{
	Locale:           "en_US",
	ViewDistance:     8,
	AutoRespawn:      true,
	KeepAliveTimeout: configutil.Duration(20 * time.Second),
}

// Config is the client configuration.
type Config struct {
	// Server is the address to connect to, "host" or "host:port".
	// Without an explicit port an SRV lookup decides the port.
	Server string
	// Username is the in-game name. Online-mode accounts must use the
	// name of the authenticated profile.
	Username string
	// Version is the release name ("1.20.4") or protocol number to
	// speak. Empty means the newest supported version.
	Version string

	Locale       string
	ViewDistance int

	AutoRespawn bool
	JoinMessage string
	JoinCommand string

	KeepAliveTimeout configutil.Duration

	Account Account

	Debug bool
}

// Account is the sign-in state of an online-mode account.
// A zero Account connects in offline mode.
type Account struct {
	// Profile is the dashed or undashed account UUID.
	Profile string
	// AccessToken is the Minecraft access token from the Mojang or
	// Microsoft sign-in chain.
	AccessToken string
}

// SetDefaults sets Config defaults to use with Viper.
func SetDefaults(i configutil.SetDefault) {
	i.SetDefault("locale", DefaultConfig.Locale)
	i.SetDefault("viewdistance", DefaultConfig.ViewDistance)
	i.SetDefault("autorespawn", DefaultConfig.AutoRespawn)
	i.SetDefault("keepalivetimeout", time.Duration(DefaultConfig.KeepAliveTimeout))
}

// Load reads in the config from the given Viper instance.
// A missing config file is not an error, defaults apply.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	cfg := new(Config)
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToDurationHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

// stringToDurationHookFunc decodes "45s" style strings into
// configutil.Duration, which viper's time.Duration hook does not cover.
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(configutil.Duration(0)) || f.Kind() != reflect.String {
			return data, nil
		}
		d, err := time.ParseDuration(data.(string))
		if err != nil {
			return nil, err
		}
		return configutil.Duration(d), nil
	}
}

// HostPort splits Server into host and port.
// Port 0 means no explicit port was given.
func (c *Config) HostPort() (host string, port int, err error) {
	host, portStr, err := net.SplitHostPort(c.Server)
	if err != nil {
		return c.Server, 0, nil
	}
	port, err = strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in server address %q", c.Server)
	}
	return host, port, nil
}

// Protocol resolves the configured Version to a protocol version,
// or the newest supported version if unset.
func (c *Config) Protocol() (*proto.Version, error) {
	if c.Version == "" {
		return version.MaximumVersion, nil
	}
	if v := version.ByName(c.Version); v != nil {
		return v, nil
	}
	if n, err := strconv.Atoi(c.Version); err == nil {
		if v, ok := version.ProtocolToVersion[proto.Protocol(n)]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("unsupported version %q (supported: %s)",
		c.Version, version.SupportedVersionsString)
}

// ProfileID parses the configured account UUID.
func (c *Config) ProfileID() (uuid.UUID, error) {
	if c.Account.Profile == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(c.Account.Profile)
}

// OnlineMode indicates whether an account with an access token is
// configured.
func (c *Config) OnlineMode() bool { return c.Account.AccessToken != "" }

func (c *Config) Validate() (warns []error, errs []error) {
	e := func(m string, args ...any) { errs = append(errs, fmt.Errorf(m, args...)) }
	w := func(m string, args ...any) { warns = append(warns, fmt.Errorf(m, args...)) }
	if c == nil {
		e("config must not be nil")
		return
	}

	if c.Server == "" {
		e("no server address specified")
	} else if _, _, err := c.HostPort(); err != nil {
		e(err.Error())
	} else if _, _, err = net.SplitHostPort(c.Server); err == nil {
		if err = validation.ValidHostPort(c.Server); err != nil {
			e("invalid server address %q: %v", c.Server, err)
		}
	}

	if c.Username == "" {
		e("no username specified")
	} else if !validation.ValidUsername(c.Username) {
		w("username %q %s, most servers reject it", c.Username, validation.UsernameErrMsg)
	}

	if _, err := c.Protocol(); err != nil {
		e(err.Error())
	}

	if _, err := c.ProfileID(); err != nil {
		e("invalid account profile uuid %q: %v", c.Account.Profile, err)
	}
	if c.OnlineMode() && c.Account.Profile == "" {
		e("account access token set but no profile uuid")
	}

	if c.ViewDistance < 2 || c.ViewDistance > 32 {
		w("view distance %d outside the vanilla 2-32 range", c.ViewDistance)
	}
	if time.Duration(c.KeepAliveTimeout) <= 0 {
		w("keep alive timeout not positive, using default")
	}

	return
}
