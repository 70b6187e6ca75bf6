package chat

import "strings"

// Style is the resolved formatting of a run after inheritance.
type Style struct {
	Color         string
	Bold          bool
	Italic        bool
	Underlined    bool
	Strikethrough bool
	Obfuscated    bool
	ClickEvent    *ClickEvent
	HoverEvent    *HoverEvent
}

// Run is a maximal span of text with uniform style.
type Run struct {
	Text string
	Style
}

func newRun(text string, s Style) Run {
	return Run{Text: text, Style: s}
}

// Flatten resolves the component tree into ordered runs, applying style
// inheritance top-down and expanding translation keys.
func Flatten(c *Component) []Run {
	return flatten(c, Style{})
}

func flatten(c *Component, parent Style) []Run {
	if c == nil {
		return nil
	}
	style := parent
	if c.Color != "" {
		style.Color = c.Color
	}
	applyBool(&style.Bold, c.Bold)
	applyBool(&style.Italic, c.Italic)
	applyBool(&style.Underlined, c.Underlined)
	applyBool(&style.Strikethrough, c.Strikethrough)
	applyBool(&style.Obfuscated, c.Obfuscated)
	if c.ClickEvent != nil {
		style.ClickEvent = c.ClickEvent
	}
	if c.HoverEvent != nil {
		style.HoverEvent = c.HoverEvent
	}

	var runs []Run
	switch {
	case c.Translate != "":
		runs = expandTranslate(c.Translate, c.With, style)
	case c.Text != "":
		if strings.ContainsRune(c.Text, LegacyChar) {
			runs = ParseLegacy(c.Text, style)
		} else {
			runs = []Run{newRun(c.Text, style)}
		}
	}
	for _, e := range c.Extra {
		runs = append(runs, flatten(e, style)...)
	}
	return runs
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Plain renders the component tree as an unstyled string.
func Plain(c *Component) string {
	var b strings.Builder
	for _, r := range Flatten(c) {
		b.WriteString(r.Text)
	}
	return b.String()
}
