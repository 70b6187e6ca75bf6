// Package profile defines the Mojang game profile model shared by the
// auth services and the login packets.
package profile

import (
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// GameProfile is a Mojang game profile.
type GameProfile struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Properties []Property `json:"properties,omitempty"`
}

// Property is a game profile property, such as the signed "textures" blob.
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}
