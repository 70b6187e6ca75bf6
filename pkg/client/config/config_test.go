package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/configutil"
)

func loadFile(t *testing.T, content string) *Config {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	v := viper.New()
	v.SetConfigFile(configPath)
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadFile(t, `
server: mc.example.com:25565
username: craftchat
version: 1.20.4
locale: de_DE
viewDistance: 10
autoRespawn: false
joinMessage: hello
keepAliveTimeout: 45s
account:
  profile: 069a79f4-44e9-4726-a5be-fca90e38aaf5
  accessToken: token
debug: true
`)

	assert.Equal(t, "mc.example.com:25565", cfg.Server)
	assert.Equal(t, "craftchat", cfg.Username)
	assert.Equal(t, "de_DE", cfg.Locale)
	assert.Equal(t, 10, cfg.ViewDistance)
	assert.False(t, cfg.AutoRespawn)
	assert.Equal(t, "hello", cfg.JoinMessage)
	assert.Equal(t, configutil.Duration(45*time.Second), cfg.KeepAliveTimeout)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.OnlineMode())

	host, port, err := cfg.HostPort()
	require.NoError(t, err)
	assert.Equal(t, "mc.example.com", host)
	assert.Equal(t, 25565, port)

	ver, err := cfg.Protocol()
	require.NoError(t, err)
	assert.Equal(t, version.Minecraft_1_20_3.Protocol, ver.Protocol)

	id, err := cfg.ProfileID()
	require.NoError(t, err)
	assert.Equal(t, "069a79f4-44e9-4726-a5be-fca90e38aaf5", id.String())

	warns, errs := cfg.Validate()
	assert.Empty(t, warns)
	assert.Empty(t, errs)
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFile(t, `
server: mc.example.com
username: craftchat
`)

	assert.Equal(t, DefaultConfig.Locale, cfg.Locale)
	assert.Equal(t, DefaultConfig.ViewDistance, cfg.ViewDistance)
	assert.Equal(t, DefaultConfig.AutoRespawn, cfg.AutoRespawn)
	assert.Equal(t, DefaultConfig.KeepAliveTimeout, cfg.KeepAliveTimeout)
	assert.False(t, cfg.OnlineMode())

	// no explicit port, SRV lookup decides
	host, port, err := cfg.HostPort()
	require.NoError(t, err)
	assert.Equal(t, "mc.example.com", host)
	assert.Equal(t, 0, port)

	// empty version means the newest supported one
	ver, err := cfg.Protocol()
	require.NoError(t, err)
	assert.Equal(t, version.MaximumVersion.Protocol, ver.Protocol)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig.Locale, cfg.Locale)
}

// A reload must not share state with the previous load.
func TestLoad_FreshPerReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("joinMessage: hello\n"), 0644))

	v1 := viper.New()
	v1.SetConfigFile(configPath)
	cfg1, err := Load(v1)
	require.NoError(t, err)
	require.Equal(t, "hello", cfg1.JoinMessage)

	require.NoError(t, os.WriteFile(configPath, []byte("# joinMessage: hello\n"), 0644))

	v2 := viper.New()
	v2.SetConfigFile(configPath)
	cfg2, err := Load(v2)
	require.NoError(t, err)
	assert.Empty(t, cfg2.JoinMessage, "commented out value must not persist")
}

func TestConfig_Protocol(t *testing.T) {
	for _, tc := range []struct {
		version string
		want    *proto.Version
		wantErr bool
	}{
		{version: "1.16.4", want: version.Minecraft_1_16_4},
		{version: "1.21.4", want: version.Minecraft_1_21_4},
		{version: "754", want: version.Minecraft_1_16_4},
		{version: "769", want: version.Minecraft_1_21_4},
		{version: "1.8", wantErr: true},
		{version: "banana", wantErr: true},
	} {
		t.Run(tc.version, func(t *testing.T) {
			cfg := &Config{Version: tc.version}
			got, err := cfg.Protocol()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want.Protocol, got.Protocol)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig
	valid.Server = "mc.example.com:25565"
	valid.Username = "craftchat"

	t.Run("valid", func(t *testing.T) {
		warns, errs := valid.Validate()
		assert.Empty(t, warns)
		assert.Empty(t, errs)
	})

	t.Run("missing server and username", func(t *testing.T) {
		cfg := DefaultConfig
		warns, errs := cfg.Validate()
		assert.Empty(t, warns)
		assert.Len(t, errs, 2)
	})

	t.Run("nil config", func(t *testing.T) {
		var cfg *Config
		_, errs := cfg.Validate()
		assert.NotEmpty(t, errs)
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := valid
		cfg.Server = "mc.example.com:notaport"
		_, errs := cfg.Validate()
		assert.NotEmpty(t, errs)
	})

	t.Run("token without profile", func(t *testing.T) {
		cfg := valid
		cfg.Account.AccessToken = "token"
		_, errs := cfg.Validate()
		assert.NotEmpty(t, errs)
	})

	t.Run("long username warns", func(t *testing.T) {
		cfg := valid
		cfg.Username = "ThisNameIsWayTooLongForMinecraft"
		warns, errs := cfg.Validate()
		assert.Empty(t, errs)
		assert.NotEmpty(t, warns)
	})

	t.Run("username with spaces warns", func(t *testing.T) {
		cfg := valid
		cfg.Username = "not a name"
		warns, errs := cfg.Validate()
		assert.Empty(t, errs)
		assert.NotEmpty(t, warns)
	})

	t.Run("view distance warns", func(t *testing.T) {
		cfg := valid
		cfg.ViewDistance = 64
		warns, errs := cfg.Validate()
		assert.Empty(t, errs)
		assert.NotEmpty(t, warns)
	})
}
