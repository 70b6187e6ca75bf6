package auth

import (
	"context"
	"errors"
	"net/http"

	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

const defaultYggdrasilURL = "https://authserver.mojang.com"

// Yggdrasil is a client for the legacy Mojang account service.
// Accounts migrated to Microsoft cannot log in here anymore but
// existing tokens remain refreshable.
type Yggdrasil struct {
	// BaseURL overrides the official endpoint, e.g. for an authlib
	// compatible third-party service. Empty means the official one.
	BaseURL string
	// The http client to query the service.
	// If none is set, a new one is created.
	Client *http.Client

	cli *http.Client
}

func (y *Yggdrasil) client() *http.Client {
	if y.cli == nil {
		y.cli = newClient(y.Client)
	}
	return y.cli
}

func (y *Yggdrasil) url(path string) string {
	base := y.BaseURL
	if base == "" {
		base = defaultYggdrasilURL
	}
	return base + path
}

// AuthResponse is the result of a successful Authenticate or Refresh.
type AuthResponse struct {
	AccessToken       string        `json:"accessToken"`
	ClientToken       string        `json:"clientToken"`
	SelectedProfile   AuthProfile   `json:"selectedProfile"`
	AvailableProfiles []AuthProfile `json:"availableProfiles"`
}

// AuthProfile is a game profile as returned by the auth service,
// with an undashed id.
type AuthProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UUID parses the undashed profile id.
func (p AuthProfile) UUID() (uuid.UUID, error) { return uuid.Parse(p.ID) }

type agent struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// Authenticate logs in with username (email) and password.
// The clientToken is optional and generated by the service if empty.
func (y *Yggdrasil) Authenticate(ctx context.Context, username, password, clientToken string) (*AuthResponse, error) {
	req := struct {
		Agent       agent  `json:"agent"`
		Username    string `json:"username"`
		Password    string `json:"password"`
		ClientToken string `json:"clientToken,omitempty"`
		RequestUser bool   `json:"requestUser"`
	}{
		Agent:       agent{Name: "Minecraft", Version: 1},
		Username:    username,
		Password:    password,
		ClientToken: clientToken,
	}
	var resp AuthResponse
	if err := postJSON(ctx, y.client(), "authenticate", y.url("/authenticate"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a possibly expired access token for a fresh one.
func (y *Yggdrasil) Refresh(ctx context.Context, accessToken, clientToken string) (*AuthResponse, error) {
	req := tokenPair{AccessToken: accessToken, ClientToken: clientToken}
	var resp AuthResponse
	if err := postJSON(ctx, y.client(), "refresh", y.url("/refresh"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Validate reports whether the access token is still usable.
// An invalid token is reported as (false, nil), not as an error.
func (y *Yggdrasil) Validate(ctx context.Context, accessToken, clientToken string) (bool, error) {
	req := tokenPair{AccessToken: accessToken, ClientToken: clientToken}
	err := postJSON(ctx, y.client(), "validate", y.url("/validate"), req, nil)
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) && authErr.Status == http.StatusForbidden {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Invalidate revokes the given access token.
func (y *Yggdrasil) Invalidate(ctx context.Context, accessToken, clientToken string) error {
	req := tokenPair{AccessToken: accessToken, ClientToken: clientToken}
	return postJSON(ctx, y.client(), "invalidate", y.url("/invalidate"), req, nil)
}

// Signout revokes all tokens of the account using its credentials.
func (y *Yggdrasil) Signout(ctx context.Context, username, password string) error {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}
	return postJSON(ctx, y.client(), "signout", y.url("/signout"), req, nil)
}

type tokenPair struct {
	AccessToken string `json:"accessToken"`
	ClientToken string `json:"clientToken,omitempty"`
}
