package chat

import (
	"encoding/json"
	"errors"
	"io"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/nbt"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/proto/version"
)

// ComponentHolder carries a chat component in whichever wire form the
// protocol uses: a JSON string before 1.20.3 and network NBT from
// 1.20.3 on. The original JSON is preserved when available so
// re-encoding is byte-faithful.
type ComponentHolder struct {
	Component *Component
	JSON      json.RawMessage
}

// AsComponentOrNil returns the held component, or nil when the holder
// is nil or empty.
func (h *ComponentHolder) AsComponentOrNil() *Component {
	if h == nil {
		return nil
	}
	return h.Component
}

// ReadComponentHolder reads a component in the encoding of the given
// protocol version.
func ReadComponentHolder(rd io.Reader, protocol proto.Protocol) (*ComponentHolder, error) {
	if protocol.GreaterEqual(version.Minecraft_1_20_3) {
		c, err := readNBTComponent(rd)
		if err != nil {
			return nil, err
		}
		return &ComponentHolder{Component: c}, nil
	}
	j, err := util.ReadString(rd)
	if err != nil {
		return nil, err
	}
	c, err := FromJSON([]byte(j))
	if err != nil {
		return nil, err
	}
	return &ComponentHolder{Component: c, JSON: json.RawMessage(j)}, nil
}

// Write writes the component in the encoding of the given protocol
// version.
func (h *ComponentHolder) Write(wr io.Writer, protocol proto.Protocol) error {
	if protocol.GreaterEqual(version.Minecraft_1_20_3) {
		b, err := nbt.MarshalAnonymous(h.Component.toNBT())
		if err != nil {
			return err
		}
		return util.WriteRawBytes(wr, b)
	}
	j := h.JSON
	if j == nil {
		var err error
		if j, err = json.Marshal(h.Component); err != nil {
			return err
		}
	}
	return util.WriteString(wr, string(j))
}

func readNBTComponent(rd io.Reader) (*Component, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	v, n, err := nbt.ParseAnonymous(b)
	if err != nil {
		return nil, err
	}
	if n < len(b) {
		// give the rest back so following packet fields still decode
		sk, ok := rd.(io.Seeker)
		if !ok {
			return nil, errors.New("chat: trailing data after nbt component in unseekable reader")
		}
		if _, err = sk.Seek(int64(n-len(b)), io.SeekCurrent); err != nil {
			return nil, err
		}
	}
	return FromNBT(v)
}

// toNBT converts the component tree into a value for nbt.Marshal.
// A bare unstyled text component collapses to a plain string tag.
func (c *Component) toNBT() any {
	if c == nil {
		return ""
	}
	if c.isPlainText() {
		return c.Text
	}
	out := nbt.Compound{}
	if c.Text != "" {
		out["text"] = c.Text
	}
	if c.Translate != "" {
		out["translate"] = c.Translate
		if len(c.With) > 0 {
			with := make([]any, len(c.With))
			for i, w := range c.With {
				with[i] = ensureCompound(w.toNBT())
			}
			out["with"] = with
		}
	}
	if c.Color != "" {
		out["color"] = c.Color
	}
	putNBTBool(out, "bold", c.Bold)
	putNBTBool(out, "italic", c.Italic)
	putNBTBool(out, "underlined", c.Underlined)
	putNBTBool(out, "strikethrough", c.Strikethrough)
	putNBTBool(out, "obfuscated", c.Obfuscated)
	if c.ClickEvent != nil {
		out["clickEvent"] = nbt.Compound{
			"action": c.ClickEvent.Action,
			"value":  c.ClickEvent.Value,
		}
	}
	if len(c.Extra) > 0 {
		extra := make([]any, len(c.Extra))
		for i, e := range c.Extra {
			extra[i] = ensureCompound(e.toNBT())
		}
		out["extra"] = extra
	}
	return out
}

func (c *Component) isPlainText() bool {
	return c.Translate == "" && c.Color == "" &&
		c.Bold == nil && c.Italic == nil && c.Underlined == nil &&
		c.Strikethrough == nil && c.Obfuscated == nil &&
		c.ClickEvent == nil && c.HoverEvent == nil && len(c.Extra) == 0
}

// ensureCompound wraps plain strings in a text compound: NBT lists must
// be homogeneous, so mixed string/compound siblings are not encodable.
func ensureCompound(v any) any {
	if s, ok := v.(string); ok {
		return nbt.Compound{"text": s}
	}
	return v
}

func putNBTBool(c nbt.Compound, name string, v *bool) {
	if v == nil {
		return
	}
	var b int8
	if *v {
		b = 1
	}
	c[name] = b
}
