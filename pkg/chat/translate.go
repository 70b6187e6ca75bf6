package chat

import (
	"strconv"
	"strings"
)

// translations is the subset of the vanilla en_us language table the
// client needs to render server chat: chat types, whispers, join/leave
// notices and the common death messages. Unknown keys fall back to a
// run naming the key so the message is never silently dropped.
var translations = map[string]string{
	"chat.type.text":                     "<%s> %s",
	"chat.type.announcement":             "[%s] %s",
	"chat.type.emote":                    "* %s %s",
	"chat.type.team.text":                "%s <%s> %s",
	"chat.type.team.sent":                "-> %s <%s> %s",
	"chat.type.admin":                    "[%s: %s]",
	"commands.message.display.incoming":  "%s whispers to you: %s",
	"commands.message.display.outgoing":  "You whisper to %s: %s",
	"multiplayer.player.joined":          "%s joined the game",
	"multiplayer.player.joined.renamed":  "%s (formerly known as %s) joined the game",
	"multiplayer.player.left":            "%s left the game",
	"death.attack.player":                "%s was slain by %s",
	"death.attack.player.item":           "%s was slain by %s using %s",
	"death.attack.mob":                   "%s was slain by %s",
	"death.attack.arrow":                 "%s was shot by %s",
	"death.attack.explosion":             "%s blew up",
	"death.attack.explosion.player":      "%s was blown up by %s",
	"death.attack.fall":                  "%s hit the ground too hard",
	"death.attack.outOfWorld":            "%s fell out of the world",
	"death.attack.lava":                  "%s tried to swim in lava",
	"death.attack.inFire":                "%s went up in flames",
	"death.attack.onFire":                "%s burned to death",
	"death.attack.drown":                 "%s drowned",
	"death.attack.starve":                "%s starved to death",
	"death.attack.generic":               "%s died",
	"death.fell.accident.generic":        "%s fell from a high place",
	"sleep.not_possible":                 "No amount of rest can pass this night",
	"multiplayer.message_not_delivered":  "Can't deliver chat message, check server logs: %s",
	"chat.disabled.options":              "Chat disabled in client options",
	"chat.cannotSend":                    "Cannot send chat message",
	"connect.failed":                     "Failed to connect to the server",
	"disconnect.timeout":                 "Timed out",
	"multiplayer.disconnect.kicked":      "Kicked by an operator",
	"multiplayer.disconnect.server_full": "The server is full!",
	"multiplayer.disconnect.generic":     "Disconnected",
}

// expandTranslate resolves a translation key into runs, interleaving
// the flattened arguments at each %s or %n$s slot. Literal text between
// slots carries the style of the translated component itself.
func expandTranslate(key string, with []*Component, style Style) []Run {
	tmpl, ok := translations[key]
	if !ok {
		runs := []Run{newRun("["+key+"]", style)}
		for _, arg := range with {
			runs = append(runs, newRun(" ", style))
			runs = append(runs, flatten(arg, style)...)
		}
		return runs
	}

	var (
		runs    []Run
		text    strings.Builder
		nextArg int
		flush   = func() {
			if text.Len() > 0 {
				runs = append(runs, newRun(text.String(), style))
				text.Reset()
			}
		}
	)
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' || i+1 >= len(tmpl) {
			text.WriteByte(tmpl[i])
			continue
		}
		i++
		switch {
		case tmpl[i] == '%':
			text.WriteByte('%')
		case tmpl[i] == 's':
			flush()
			runs = append(runs, argRuns(with, nextArg, style)...)
			nextArg++
		case tmpl[i] >= '1' && tmpl[i] <= '9':
			// positional %n$s
			j := i
			for j < len(tmpl) && tmpl[j] >= '0' && tmpl[j] <= '9' {
				j++
			}
			if j+1 < len(tmpl) && tmpl[j] == '$' && tmpl[j+1] == 's' {
				idx, _ := strconv.Atoi(tmpl[i:j])
				flush()
				runs = append(runs, argRuns(with, idx-1, style)...)
				i = j + 1
			} else {
				text.WriteByte('%')
				text.WriteByte(tmpl[i])
			}
		default:
			text.WriteByte('%')
			text.WriteByte(tmpl[i])
		}
	}
	flush()
	return runs
}

func argRuns(with []*Component, idx int, style Style) []Run {
	if idx < 0 || idx >= len(with) {
		return nil
	}
	return flatten(with[idx], style)
}
