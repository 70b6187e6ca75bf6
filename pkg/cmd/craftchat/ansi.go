package craftchat

import (
	"fmt"
	"strconv"
	"strings"

	"go.craftchat.dev/craftchat/pkg/chat"
)

const ansiReset = "\x1b[0m"

// Minecraft color names to ANSI 16-color codes.
var ansiColors = map[string]string{
	"black":        "30",
	"dark_blue":    "34",
	"dark_green":   "32",
	"dark_aqua":    "36",
	"dark_red":     "31",
	"dark_purple":  "35",
	"gold":         "33",
	"gray":         "37",
	"dark_gray":    "90",
	"blue":         "94",
	"green":        "92",
	"aqua":         "96",
	"red":          "91",
	"light_purple": "95",
	"yellow":       "93",
	"white":        "97",
}

// ansiStyle renders one styled run as ANSI escaped terminal text.
func ansiStyle(r chat.Run) string {
	var codes []string
	if c, ok := ansiColors[r.Color]; ok {
		codes = append(codes, c)
	} else if strings.HasPrefix(r.Color, "#") && len(r.Color) == 7 {
		if rgb, err := strconv.ParseUint(r.Color[1:], 16, 32); err == nil {
			codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d",
				(rgb>>16)&0xff, (rgb>>8)&0xff, rgb&0xff))
		}
	}
	if r.Bold {
		codes = append(codes, "1")
	}
	if r.Italic {
		codes = append(codes, "3")
	}
	if r.Underlined {
		codes = append(codes, "4")
	}
	if r.Strikethrough {
		codes = append(codes, "9")
	}
	if len(codes) == 0 {
		return ansiReset + r.Text
	}
	return ansiReset + "\x1b[" + strings.Join(codes, ";") + "m" + r.Text
}
