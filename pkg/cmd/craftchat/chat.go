package craftchat

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/urfave/cli/v2"

	"go.craftchat.dev/craftchat/pkg/auth"
	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/client"
	"go.craftchat.dev/craftchat/pkg/client/config"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/interrupt"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Connect to a server and relay chat",
		Description: `Connects to the configured server, prints incoming chat to
stdout and sends lines read from stdin as chat messages.
Lines starting with a slash are sent as commands.`,
		Action: runChat,
	}
}

func runChat(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return cli.Exit(fmt.Errorf("error initializing logger: %w", err), 1)
	}
	if err = validateConfig(cfg, log); err != nil {
		return cli.Exit(err, 1)
	}

	ctx, stop := interrupt.TerminationContext(c.Context)
	defer stop()

	opts, err := clientOptions(ctx, cfg, log)
	if err != nil {
		return cli.Exit(err, 1)
	}

	conn, err := client.Connect(ctx, *opts, log)
	if err != nil {
		return cli.Exit(fmt.Errorf("error connecting: %w", err), 1)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go sendLoop(conn, log)

	for ev := range conn.Events() {
		switch e := ev.(type) {
		case client.ConnectedEvent:
			log.Info("logged in", "username", e.Username, "id", e.ID)
		case client.StateEvent:
			log.V(1).Info("state change", "state", e.State)
		case client.ChatEvent:
			printChat(e)
		case client.ErrorEvent:
			log.Info("connection error", "error", e.Err)
		case client.DisconnectEvent:
			reason := "(no reason)"
			if e.Reason != nil {
				reason = chat.Plain(e.Reason)
			}
			log.Info("disconnected by server", "reason", reason)
		case client.ClosedEvent:
			if e.Err != nil {
				return cli.Exit(fmt.Errorf("connection closed: %w", e.Err), 1)
			}
			return nil
		}
	}
	return nil
}

// sendLoop relays stdin lines into chat until stdin closes.
func sendLoop(conn *client.Conn, log logr.Logger) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := conn.SendMessage(line); err != nil {
			log.Info("could not send message", "error", err)
		}
	}
}

func printChat(e client.ChatEvent) {
	ts := time.Now().Format("15:04:05")
	var b strings.Builder
	for _, run := range e.Runs {
		b.WriteString(ansiStyle(run))
	}
	b.WriteString(ansiReset)
	fmt.Printf("%s %s\n", ts, b.String())
}

// clientOptions assembles connection options from the config,
// fetching the chat signing certificate for online-mode accounts
// where the protocol expects one.
func clientOptions(ctx context.Context, cfg *config.Config, log logr.Logger) (*client.Options, error) {
	host, port, err := cfg.HostPort()
	if err != nil {
		return nil, err
	}
	ver, err := cfg.Protocol()
	if err != nil {
		return nil, err
	}
	profile, err := cfg.ProfileID()
	if err != nil {
		return nil, err
	}

	opts := &client.Options{
		Host:         host,
		Port:         uint16(port),
		Username:     cfg.Username,
		Protocol:     ver.Protocol,
		Profile:      profile,
		AccessToken:  cfg.Account.AccessToken,
		JoinMessage:  cfg.JoinMessage,
		JoinCommand:  cfg.JoinCommand,
		AutoRespawn:  cfg.AutoRespawn,
		Locale:       cfg.Locale,
		ViewDistance: byte(cfg.ViewDistance),
	}
	if d := time.Duration(cfg.KeepAliveTimeout); d > 0 {
		opts.KeepAliveTimeout = d
	}

	if cfg.OnlineMode() && ver.Protocol.GreaterEqual(version.Minecraft_1_19) {
		sessions := &auth.SessionService{}
		cert, err := sessions.PlayerCertificates(ctx, cfg.Account.AccessToken)
		if err != nil {
			// Unsigned chat still works on most servers.
			log.Info("could not fetch chat signing certificate", "error", err)
		} else {
			opts.Certificate = cert
		}
	}
	return opts, nil
}
