package client

import (
	"bytes"
	"reflect"

	"github.com/go-logr/logr"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/packet"
	"go.craftchat.dev/craftchat/pkg/proto/state"
	"go.craftchat.dev/craftchat/pkg/proto/util"
)

// clientBrand is reported on the minecraft:brand channel.
const clientBrand = "vanilla"

// configSessionHandler drives the configuration state, on 1.20.2 and
// newer, until the server finishes it.
type configSessionHandler struct {
	conn *Conn
	log  logr.Logger

	nopSessionHandler
}

func newConfigSessionHandler(conn *Conn) sessionHandler {
	return &configSessionHandler{
		conn: conn,
		log:  conn.log.WithName("configSession"),
	}
}

// Activated reports the client brand and settings, the two packets a
// vanilla client opens the configuration phase with.
func (h *configSessionHandler) Activated() {
	c := h.conn
	if err := c.BufferPacket(brandPluginMessage()); err != nil {
		return
	}
	_ = c.WritePacket(clientSettings(c.opts))
}

func (h *configSessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		return // ignore unknown
	}

	switch p := pc.Packet.(type) {
	case *packet.FinishConfiguration:
		h.handleFinish()
	case *packet.KeepAlive:
		h.handlerErr(h.conn.WritePacket(&packet.KeepAlive{RandomID: p.RandomID}))
	case *packet.Ping:
		h.handlerErr(h.conn.WritePacket(&packet.Pong{ID: p.ID}))
	case *packet.Disconnect:
		if p.Reason != nil {
			h.conn.disconnectReason.Store(p.Reason.AsComponentOrNil())
		}
		_ = h.conn.Close()
	case *packet.PluginMessage:
		// Registry data, tags and feature flags are irrelevant for a
		// chat session.
	default:
		h.log.V(1).Info("received unexpected packet during configuration",
			"packetType", reflect.TypeOf(p))
	}
}

// handleFinish acknowledges the end of the configuration phase and
// enters play.
func (h *configSessionHandler) handleFinish() {
	c := h.conn
	if err := c.WritePacket(&packet.FinishConfiguration{}); err != nil {
		return
	}
	c.setState(state.Play)
	c.fire(StateEvent{State: StatePlay})
	c.setSessionHandler(newPlaySessionHandler(c))
}

// handlerErr surfaces a failed reaction without closing the session.
func (h *configSessionHandler) handlerErr(err error) {
	if err != nil && err != ErrClosedConn {
		h.conn.fireError(err)
	}
}

func brandPluginMessage() *packet.PluginMessage {
	buf := new(bytes.Buffer)
	_ = util.WriteString(buf, clientBrand)
	return &packet.PluginMessage{
		Channel: packet.BrandChannel,
		Data:    buf.Bytes(),
	}
}

func clientSettings(opts *Options) *packet.ClientSettings {
	return &packet.ClientSettings{
		Locale:         opts.locale(),
		ViewDistance:   opts.viewDistance(),
		ChatVisibility: 0, // full chat
		ChatColors:     true,
		SkinParts:      0x7F,
		MainHand:       1, // right
		ClientListing:  true,
	}
}
