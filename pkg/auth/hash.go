package auth

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// ServerHash computes the digest sent to the Mojang session server
// when joining an online mode server: SHA-1 over the server id, the
// shared secret and the server's DER encoded public key, rendered in
// Minecraft's signed hex notation.
func ServerHash(serverID string, sharedSecret, publicKey []byte) string {
	h := sha1.New()
	_, _ = h.Write([]byte(serverID))
	_, _ = h.Write(sharedSecret)
	_, _ = h.Write(publicKey)
	hash := h.Sum(nil)

	var s strings.Builder
	// Check for negative hash
	if (hash[0] & 0x80) == 0x80 {
		hash = twosComplement(hash)
		s.WriteRune('-')
	}
	s.WriteString(strings.TrimLeft(hex.EncodeToString(hash), "0"))
	return s.String()
}

// big endian!
func twosComplement(p []byte) []byte {
	carry := true
	for i := len(p) - 1; i >= 0; i-- {
		p[i] = ^p[i]
		if carry {
			carry = p[i] == 0xff
			p[i]++
		}
	}
	return p
}
