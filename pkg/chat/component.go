// Package chat decodes Minecraft chat components, in their JSON, NBT and
// legacy paragraph-code forms, into a flat list of styled text runs that
// a rendering layer can display.
package chat

import (
	"encoding/json"
	"fmt"

	"go.craftchat.dev/craftchat/pkg/proto/nbt"
)

// Component is a chat component: a styled text run, a translation
// reference or a raw legacy string carried in the Text field.
// Style fields use pointers so unset fields inherit from the parent
// when flattening.
type Component struct {
	Text string `json:"text,omitempty"`

	Translate string       `json:"translate,omitempty"`
	With      []*Component `json:"with,omitempty"`

	Color         string `json:"color,omitempty"`
	Bold          *bool  `json:"bold,omitempty"`
	Italic        *bool  `json:"italic,omitempty"`
	Underlined    *bool  `json:"underlined,omitempty"`
	Strikethrough *bool  `json:"strikethrough,omitempty"`
	Obfuscated    *bool  `json:"obfuscated,omitempty"`

	ClickEvent *ClickEvent `json:"clickEvent,omitempty"`
	HoverEvent *HoverEvent `json:"hoverEvent,omitempty"`

	Extra []*Component `json:"extra,omitempty"`
}

// ClickEvent is a click action attached to a run.
type ClickEvent struct {
	Action string `json:"action"`
	Value  string `json:"value"`
}

// HoverEvent is a hover action attached to a run. Contents is kept raw:
// its shape varies wildly across versions and the client only forwards it.
type HoverEvent struct {
	Action   string          `json:"action"`
	Contents json.RawMessage `json:"contents,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
}

// FromJSON decodes a chat component from its JSON form. The top level
// value may be a string, an object or an array (first element parent,
// rest extra), per vanilla tolerance.
func FromJSON(b []byte) (*Component, error) {
	var c Component
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("chat: error decoding component json: %w", err)
	}
	return &c, nil
}

func (c *Component) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		return json.Unmarshal(b, &c.Text)
	case '[':
		var parts []*Component
		if err := json.Unmarshal(b, &parts); err != nil {
			return err
		}
		if len(parts) == 0 {
			return nil
		}
		*c = *parts[0]
		c.Extra = append(c.Extra, parts[1:]...)
		return nil
	case 't', 'f':
		// bare JSON bool, rendered as its string form
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		c.Text = fmt.Sprint(v)
		return nil
	}
	// plain object; alias type avoids recursing into this method
	type component Component
	return json.Unmarshal(b, (*component)(c))
}

func (c *Component) MarshalJSON() ([]byte, error) {
	type component Component
	return json.Marshal((*component)(c))
}

// FromNBT converts a network-NBT encoded component (1.20.3+) into a
// Component. v is a value produced by nbt.ParseAnonymous.
func FromNBT(v any) (*Component, error) {
	switch val := v.(type) {
	case string:
		return &Component{Text: val}, nil
	case []any:
		if len(val) == 0 {
			return &Component{}, nil
		}
		parent, err := FromNBT(val[0])
		if err != nil {
			return nil, err
		}
		for _, e := range val[1:] {
			child, err := FromNBT(e)
			if err != nil {
				return nil, err
			}
			parent.Extra = append(parent.Extra, child)
		}
		return parent, nil
	case nbt.Compound:
		return compoundToComponent(val)
	}
	return nil, fmt.Errorf("chat: cannot convert %T to a component", v)
}

func compoundToComponent(c nbt.Compound) (*Component, error) {
	out := &Component{}
	if s, ok := c["text"].(string); ok {
		out.Text = s
	}
	if s, ok := c["translate"].(string); ok {
		out.Translate = s
	}
	if s, ok := c["color"].(string); ok {
		out.Color = s
	}
	out.Bold = nbtBool(c, "bold")
	out.Italic = nbtBool(c, "italic")
	out.Underlined = nbtBool(c, "underlined")
	out.Strikethrough = nbtBool(c, "strikethrough")
	out.Obfuscated = nbtBool(c, "obfuscated")
	if with, ok := c["with"].([]any); ok {
		for _, e := range with {
			child, err := FromNBT(e)
			if err != nil {
				return nil, err
			}
			out.With = append(out.With, child)
		}
	}
	if extra, ok := c["extra"].([]any); ok {
		for _, e := range extra {
			child, err := FromNBT(e)
			if err != nil {
				return nil, err
			}
			out.Extra = append(out.Extra, child)
		}
	}
	if ce, ok := c["clickEvent"].(nbt.Compound); ok {
		action, _ := ce["action"].(string)
		value, _ := ce["value"].(string)
		out.ClickEvent = &ClickEvent{Action: action, Value: value}
	}
	return out, nil
}

func nbtBool(c nbt.Compound, name string) *bool {
	if v, ok := c[name].(int8); ok {
		b := v != 0
		return &b
	}
	return nil
}
