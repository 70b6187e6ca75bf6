package version

import (
	"net/http"
	"strings"
)

// version is the current version of CraftChat.
// Set using -ldflags "-X go.craftchat.dev/craftchat/pkg/version.version=v1.2.3"
var version string = "unknown"

func String() string {
	return version
}

func UserAgent() string {
	s := strings.Builder{}
	s.WriteString("CraftChat/")
	if v := String(); v != "" {
		s.WriteString(v)
	} else {
		s.WriteString("Dirty")
	}
	return s.String()
}

func UserAgentHeader() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", UserAgent())
	return h
}
