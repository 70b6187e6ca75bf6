// Package craftchat implements the craftchat command line interface.
package craftchat

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.craftchat.dev/craftchat/pkg/client/config"
	"go.craftchat.dev/craftchat/pkg/version"
)

// App returns the craftchat command line application.
func App() *cli.App {
	return &cli.App{
		Name:    "craftchat",
		Usage:   "A headless Minecraft Java edition chat client",
		Version: version.String(),
		Description: `Craftchat connects to Minecraft Java edition servers
(1.16.4 through 1.21.4) as a chat-only client: it logs in, keeps the
connection alive and relays chat both ways without a game frontend.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   "craftchat.yml",
				EnvVars: []string{"CRAFTCHAT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Server address, host or host:port",
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "In-game username",
			},
			&cli.StringFlag{
				Name:  "mc-version",
				Usage: "Minecraft version to speak, e.g. 1.20.4 (default: newest)",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			chatCommand(),
			pingCommand(),
			configCommand(),
		},
		DefaultCommand: "chat",
	}
}

// loadConfig reads the config file and environment and overlays the
// global command line flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	v := viper.New()
	v.SetConfigFile(c.String("config"))
	v.SetEnvPrefix("CRAFTCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	if s := c.String("server"); s != "" {
		cfg.Server = s
	}
	if s := c.String("username"); s != "" {
		cfg.Username = s
	}
	if s := c.String("mc-version"); s != "" {
		cfg.Version = s
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	return cfg, nil
}

// validateConfig prints warnings and returns the first hard error.
func validateConfig(cfg *config.Config, log logr.Logger) error {
	warns, errs := cfg.Validate()
	for _, w := range warns {
		log.Info("config warning", "warn", w)
	}
	if len(errs) != 0 {
		return fmt.Errorf("invalid config: %w", errs[0])
	}
	return nil
}

func newLogger(debug bool) (logr.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}
