package client

import (
	"fmt"
	"reflect"

	"github.com/go-logr/logr"

	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/packet"
	pchat "go.craftchat.dev/craftchat/pkg/proto/packet/chat"
	"go.craftchat.dev/craftchat/pkg/proto/state"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// lowHealthThreshold is two hearts.
const lowHealthThreshold = 4

// playSessionHandler drives the play state: keep-alives, chat
// assembly and the small set of reactions that keep the session
// healthy without a full game client.
type playSessionHandler struct {
	conn *Conn
	log  logr.Logger

	lowHealth bool

	nopSessionHandler
}

func newPlaySessionHandler(conn *Conn) sessionHandler {
	return &playSessionHandler{
		conn: conn,
		log:  conn.log.WithName("playSession"),
	}
}

func (h *playSessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		return // ignore unknown
	}

	switch p := pc.Packet.(type) {
	case *packet.JoinGame:
		h.handleJoinGame()
	case *packet.KeepAlive:
		h.handlerErr(h.conn.WritePacket(&packet.KeepAlive{RandomID: p.RandomID}))
	case *packet.Ping:
		h.handlerErr(h.conn.WritePacket(&packet.Pong{ID: p.ID}))
	case *pchat.LegacyChat:
		h.handleLegacyChat(p)
	case *pchat.SystemChat:
		h.handleSystemChat(p)
	case *pchat.PlayerChat:
		h.handlePlayerChat(pc, p)
	case *packet.Disconnect:
		h.handleDisconnect(p)
	case *packet.Respawn:
		// A dimension change resets server side settings.
		h.handlerErr(h.conn.WritePacket(clientSettings(h.conn.opts)))
	case *packet.OpenScreen:
		// No inventory surface exists, close every window offered.
		h.handlerErr(h.conn.WritePacket(&packet.CloseWindow{WindowID: p.WindowID}))
	case *packet.CombatDeath:
		h.handleCombatDeath(pc, p)
	case *packet.UpdateHealth:
		h.handleUpdateHealth(p)
	case *packet.StartConfiguration:
		h.handleStartConfiguration()
	case *packet.PluginMessage:
		// ignore
	case *packet.CloseWindow:
		// ignore, nothing is tracked per window
	default:
		h.log.V(1).Info("received unhandled packet in play",
			"packetType", reflect.TypeOf(p))
	}
}

// handleJoinGame reports client settings and, once per connection,
// the configured join message and command.
func (h *playSessionHandler) handleJoinGame() {
	c := h.conn
	if c.Protocol().Lower(version.Minecraft_1_20_2) {
		// Versions with a configuration state did this there already.
		if err := c.BufferPacket(brandPluginMessage()); err != nil {
			return
		}
		if err := c.WritePacket(clientSettings(c.opts)); err != nil {
			return
		}
	}
	if c.playEntered.CompareAndSwap(false, true) {
		if cmd := c.opts.JoinCommand; cmd != "" {
			h.handlerErr(c.SendCommand(cmd))
		}
		if msg := c.opts.JoinMessage; msg != "" {
			// An overlong configured message is cut to the protocol
			// limit rather than rejected.
			if len(msg) > pchat.MaxServerBoundMessageLength {
				msg = msg[:pchat.MaxServerBoundMessageLength]
			}
			h.handlerErr(c.SendMessage(msg))
		}
	}
}

func (h *playSessionHandler) handleLegacyChat(p *pchat.LegacyChat) {
	if p.Type == pchat.GameInfoMessageType {
		return // hotbar text is transient, not chat
	}
	comp, err := chat.FromJSON([]byte(p.Message))
	if err != nil {
		h.conn.fireError(fmt.Errorf("error decoding chat message: %w", err))
		return
	}
	h.fireChat(comp, p.Type != pchat.ChatMessageType, p.Sender, "")
}

func (h *playSessionHandler) handleSystemChat(p *pchat.SystemChat) {
	if p.Type == pchat.GameInfoMessageType {
		return // hotbar text is transient, not chat
	}
	comp := p.Component.AsComponentOrNil()
	if comp == nil {
		return
	}
	h.fireChat(comp, true, uuid.Nil, "")
}

// handlePlayerChat renders a signed player message the way an
// undecorated server would: "<sender> message".
func (h *playSessionHandler) handlePlayerChat(pc *proto.PacketContext, p *pchat.PlayerChat) {
	body := p.DisplayedContent()
	sender := p.SenderName.AsComponentOrNil()
	name := ""
	if sender != nil {
		name = chat.Plain(sender)
	}
	comp := &chat.Component{
		Translate: "chat.type.text",
		With:      []*chat.Component{orEmpty(sender), orEmpty(body.AsComponentOrNil())},
	}
	h.fireChat(comp, false, p.Sender, name)
}

func orEmpty(c *chat.Component) *chat.Component {
	if c == nil {
		return &chat.Component{}
	}
	return c
}

func (h *playSessionHandler) fireChat(comp *chat.Component, system bool, sender uuid.UUID, senderName string) {
	runs := chat.Flatten(comp)
	h.conn.fire(ChatEvent{
		Runs:       runs,
		Plain:      chat.Plain(comp),
		System:     system,
		Sender:     sender,
		SenderName: senderName,
	})
}

func (h *playSessionHandler) handleDisconnect(p *packet.Disconnect) {
	if p.Reason != nil {
		h.conn.disconnectReason.Store(p.Reason.AsComponentOrNil())
	}
	_ = h.conn.Close()
}

func (h *playSessionHandler) handleCombatDeath(pc *proto.PacketContext, p *packet.CombatDeath) {
	if !p.Died(pc) {
		return
	}
	if msg := p.Message.AsComponentOrNil(); msg != nil {
		h.fireChat(msg, true, uuid.Nil, "")
	}
	if h.conn.opts.AutoRespawn {
		h.handlerErr(h.conn.WritePacket(&packet.ClientStatus{Action: packet.PerformRespawnAction}))
	}
}

func (h *playSessionHandler) handleUpdateHealth(p *packet.UpdateHealth) {
	if p.Health <= 0 {
		// Death is reported via the combat packet, but some servers
		// only send the health update.
		if h.conn.opts.AutoRespawn {
			h.handlerErr(h.conn.WritePacket(&packet.ClientStatus{Action: packet.PerformRespawnAction}))
		}
		h.lowHealth = false
		return
	}
	if p.Health <= lowHealthThreshold {
		if !h.lowHealth {
			h.lowHealth = true
			h.fireChat(&chat.Component{
				Text:  fmt.Sprintf("Low health: %.1f", p.Health),
				Color: "red",
			}, true, uuid.Nil, "")
		}
		return
	}
	h.lowHealth = false
}

// handleStartConfiguration acknowledges the server's request to
// reconfigure, e.g. ahead of a backend switch behind a proxy.
func (h *playSessionHandler) handleStartConfiguration() {
	c := h.conn
	if err := c.WritePacket(&packet.AcknowledgeConfiguration{}); err != nil {
		return
	}
	c.setState(state.Config)
	c.fire(StateEvent{State: StateConfiguration})
	c.setSessionHandler(newConfigSessionHandler(c))
}

// handlerErr surfaces a failed reaction without closing the session.
func (h *playSessionHandler) handlerErr(err error) {
	if err != nil && err != ErrClosedConn {
		h.conn.fireError(err)
	}
}
