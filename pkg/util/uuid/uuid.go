// Package uuid wraps github.com/google/uuid with the forms used by the
// Minecraft protocol and Mojang's web APIs.
package uuid

import (
	"encoding/hex"
	"fmt"
	"strconv"

	guuid "github.com/google/uuid"
)

type UUID guuid.UUID

// Nil is the empty UUID, all zeros.
var Nil = UUID(guuid.Nil)

// String returns the canonical dashed form
// xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx.
func (i UUID) String() string {
	return guuid.UUID(i).String()
}

// Undashed returns the raw hex form used by Mojang's session APIs.
func (i UUID) Undashed() string {
	return hex.EncodeToString(i[:])
}

func (i UUID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(i.String())), nil
}

func (i *UUID) UnmarshalJSON(b []byte) (err error) {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("expected quoted uuid, but got %s: %w", b, err)
	}
	*i, err = Parse(s)
	return
}

// Parse decodes s into a UUID. Both the dashed and the undashed hex
// forms are accepted, the latter being what Mojang's profile endpoints
// return.
func Parse(s string) (UUID, error) {
	id, err := guuid.Parse(s)
	return UUID(id), err
}

// FromBytes creates a UUID from a 16 byte slice.
func FromBytes(b []byte) (UUID, error) {
	id, err := guuid.FromBytes(b)
	return UUID(id), err
}

// New returns a new random UUID.
func New() UUID {
	return UUID(guuid.New())
}
