package craftchat

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/urfave/cli/v2"

	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/ping"
)

func pingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Ping a server and print its status",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "legacy",
				Usage: "Use the pre-Netty 0xFE ping",
			},
			&cli.BoolFlag{
				Name:  "no-srv",
				Usage: "Skip the SRV record lookup",
			},
		},
		Action: runPing,
	}
}

func runPing(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return cli.Exit(fmt.Errorf("error initializing logger: %w", err), 1)
	}
	if cfg.Server == "" {
		return cli.Exit("no server address specified", 1)
	}

	host, port, err := cfg.HostPort()
	if err != nil {
		return cli.Exit(err, 1)
	}
	ver, err := cfg.Protocol()
	if err != nil {
		return cli.Exit(err, 1)
	}

	ctx := logr.NewContext(c.Context, log)
	if port == 0 {
		port = 25565
		if !c.Bool("no-srv") {
			resolver := &ping.Resolver{}
			var p uint16
			host, p = resolver.Resolve(ctx, host, uint16(port))
			port = int(p)
		}
	}

	pinger := &ping.Pinger{Protocol: ver.Protocol}

	if c.Bool("legacy") {
		pong, err := pinger.PingLegacy(ctx, host, uint16(port))
		if err != nil {
			return cli.Exit(fmt.Errorf("error pinging %s:%d: %w", host, port, err), 1)
		}
		fmt.Printf("%s (protocol %d)\n%s\n%d/%d players online\n",
			pong.ServerVersion, pong.ProtocolVersion, pong.MOTD, pong.OnlinePlayers, pong.MaxPlayers)
		return nil
	}

	pong, latency, err := pinger.Ping(ctx, host, uint16(port))
	if err != nil {
		return cli.Exit(fmt.Errorf("error pinging %s:%d: %w", host, port, err), 1)
	}
	motd := ""
	if pong.Description != nil {
		motd = chat.Plain(pong.Description)
	}
	fmt.Printf("%s (protocol %d), %s\n%s\n%d/%d players online\n",
		pong.Version.Name, pong.Version.Protocol, latency.Round(time.Millisecond),
		motd, pong.Players.Online, pong.Players.Max)
	return nil
}
