// Package ping implements the server list ping and the SRV record
// discovery that precedes connecting.
package ping

import (
	"encoding/json"
	"fmt"

	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// ServerPing is a 1.7 and above server list ping response.
type ServerPing struct {
	Version     Version         `json:"version,omitempty"`
	Players     *Players        `json:"players,omitempty"`
	Description *chat.Component `json:"description"`
	Favicon     string          `json:"favicon,omitempty"`
}

var (
	_ json.Marshaler   = (*ServerPing)(nil)
	_ json.Unmarshaler = (*ServerPing)(nil)
)

func (p *ServerPing) MarshalJSON() ([]byte, error) {
	type Alias ServerPing
	return json.Marshal((*Alias)(p))
}

func (p *ServerPing) UnmarshalJSON(data []byte) error {
	type Alias ServerPing
	out := &struct {
		Alias
		Description json.RawMessage `json:"description"` // override description type
	}{}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error decoding json: %w", err)
	}

	// Description may be missing, a plain string or a component.
	if len(out.Description) == 0 || string(out.Description) == "null" {
		out.Alias.Description = &chat.Component{}
	} else {
		var err error
		out.Alias.Description, err = chat.FromJSON(out.Description)
		if err != nil {
			return fmt.Errorf("error decoding description: %w", err)
		}
	}

	*p = ServerPing(out.Alias)
	return nil
}

type Version struct {
	Protocol proto.Protocol `json:"protocol,omitempty"`
	Name     string         `json:"name,omitempty"`
}

type Players struct {
	Online int            `json:"online"`
	Max    int            `json:"max"`
	Sample []SamplePlayer `json:"sample,omitempty"`
}

type SamplePlayer struct {
	Name string    `json:"name"`
	ID   uuid.UUID `json:"id"`
}
