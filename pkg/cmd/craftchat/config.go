package craftchat

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"go.craftchat.dev/craftchat/pkg/configs"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Output a configuration file template",
		Description: `Output a configuration file template to stdout or a file.
You can redirect to a file or use the --write flag:

	craftchat config > craftchat.yml
	craftchat config --write         # Writes to craftchat.yml

Available config types:
  - full (default): All options with their defaults
  - online: Online-mode account example`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Config type: full or online",
				Value:   "full",
			},
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Write config to craftchat.yml instead of stdout",
			},
		},
		Action: func(c *cli.Context) error {
			var configBytes []byte
			switch configType := c.String("type"); configType {
			case "full":
				configBytes = configs.DefaultConfigBytes
			case "online":
				configBytes = configs.OnlineConfigBytes
			default:
				return cli.Exit(fmt.Sprintf("unknown config type: %s (valid types: full, online)", configType), 1)
			}

			if c.Bool("write") {
				outputFile := "craftchat.yml"
				if err := os.WriteFile(outputFile, configBytes, 0644); err != nil {
					return cli.Exit(fmt.Errorf("error writing config to %q: %w", outputFile, err), 1)
				}
				fmt.Printf("Configuration written to %s\n", outputFile)
				return nil
			}

			_, err := os.Stdout.Write(configBytes)
			if err != nil {
				return cli.Exit(fmt.Errorf("error writing config: %w", err), 1)
			}
			return nil
		},
	}
}
