package chat

import "strings"

// LegacyChar is the vanilla formatting escape character.
const LegacyChar = '§'

var legacyColors = map[byte]string{
	'0': "black",
	'1': "dark_blue",
	'2': "dark_green",
	'3': "dark_aqua",
	'4': "dark_red",
	'5': "dark_purple",
	'6': "gold",
	'7': "gray",
	'8': "dark_gray",
	'9': "blue",
	'a': "green",
	'b': "aqua",
	'c': "red",
	'd': "light_purple",
	'e': "yellow",
	'f': "white",
}

// ParseLegacy scans a legacy paragraph-coded string into styled runs.
// base supplies the initial style. Vanilla semantics apply: a color code
// resets all active decorations, and §r resets everything to base.
func ParseLegacy(s string, base Style) []Run {
	var (
		runs  []Run
		cur   = base
		text  strings.Builder
		flush = func() {
			if text.Len() > 0 {
				runs = append(runs, newRun(text.String(), cur))
				text.Reset()
			}
		}
	)
	for i := 0; i < len(s); {
		r := rune(s[i])
		if r >= 0x80 {
			// decode the multi-byte rune path manually only for §
			if strings.HasPrefix(s[i:], string(LegacyChar)) && i+len(string(LegacyChar)) < len(s) {
				code := lower(s[i+len(string(LegacyChar))])
				i += len(string(LegacyChar)) + 1
				if color, ok := legacyColors[code]; ok {
					flush()
					cur = base
					cur.Color = color
					continue
				}
				switch code {
				case 'k':
					flush()
					cur.Obfuscated = true
				case 'l':
					flush()
					cur.Bold = true
				case 'm':
					flush()
					cur.Strikethrough = true
				case 'n':
					flush()
					cur.Underlined = true
				case 'o':
					flush()
					cur.Italic = true
				case 'r':
					flush()
					cur = base
				default:
					// unknown code is dropped, like the vanilla client
				}
				continue
			}
			// some other multi-byte rune, copy it through whole
			n := 1
			for i+n < len(s) && s[i+n]&0xC0 == 0x80 {
				n++
			}
			text.WriteString(s[i : i+n])
			i += n
			continue
		}
		text.WriteByte(s[i])
		i++
	}
	flush()
	return runs
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// StripLegacy removes all paragraph codes from s.
func StripLegacy(s string) string {
	var b strings.Builder
	runs := ParseLegacy(s, Style{})
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}
