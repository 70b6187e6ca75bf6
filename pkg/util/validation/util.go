// Package validation checks user-supplied configuration values.
package validation

import (
	"net"
	"regexp"
)

// ValidHostPort checks a "host:port" server address.
func ValidHostPort(hostAndPort string) error {
	_, _, err := net.SplitHostPort(hostAndPort)
	return err
}

// UsernameErrMsg describes what vanilla servers accept as a username.
const UsernameErrMsg = "must be 1-16 letters, digits or underscores"

var usernameRegexp = regexp.MustCompile(`^\w{1,16}$`)

// ValidUsername reports whether name is a username vanilla servers
// accept. Offline servers are often more lenient, so callers should
// warn rather than reject.
func ValidUsername(name string) bool {
	return usernameRegexp.MatchString(name)
}
