package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

const (
	defaultSessionServerURL = "https://sessionserver.mojang.com"
	defaultServicesURL      = "https://api.minecraftservices.com"
)

// ErrNoGameLicense indicates the Microsoft account exists but owns no
// copy of the game.
var ErrNoGameLicense = errors.New("auth: account owns no game license")

// Certificate is the player's chat signing key pair as issued by the
// Minecraft services, valid for the contained window.
type Certificate struct {
	KeyPair struct {
		PrivateKey string `json:"privateKey"` // PEM
		PublicKey  string `json:"publicKey"`  // PEM
	} `json:"keyPair"`
	PublicKeySignature   string    `json:"publicKeySignature"`
	PublicKeySignatureV2 string    `json:"publicKeySignatureV2"`
	ExpiresAt            time.Time `json:"expiresAt"`
	RefreshedAfter       time.Time `json:"refreshedAfter"`
}

// Expired reports whether the certificate's validity window has passed.
func (c *Certificate) Expired() bool { return time.Now().After(c.ExpiresAt) }

// ShouldRefresh reports whether a fresh certificate should be fetched.
func (c *Certificate) ShouldRefresh() bool { return time.Now().After(c.RefreshedAfter) }

// RSAPrivateKey parses the PEM encoded private key.
func (c *Certificate) RSAPrivateKey() (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(c.KeyPair.PrivateKey))
	if block == nil {
		return nil, errors.New("auth: certificate contains no PEM private key")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("auth: error parsing certificate private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("auth: certificate private key is %T, not RSA", key)
	}
	return rsaKey, nil
}

// SessionService talks to the Mojang session server and the Minecraft
// services with a game access token.
type SessionService struct {
	// SessionServerURL and ServicesURL override the official
	// endpoints. Empty means official.
	SessionServerURL string
	ServicesURL      string
	// The http client to query the services.
	// If none is set, a new one is created.
	Client *http.Client

	cli *http.Client
}

func (s *SessionService) client() *http.Client {
	if s.cli == nil {
		s.cli = newClient(s.Client)
	}
	return s.cli
}

func (s *SessionService) sessionURL(path string) string {
	base := s.SessionServerURL
	if base == "" {
		base = defaultSessionServerURL
	}
	return base + path
}

func (s *SessionService) servicesURL(path string) string {
	base := s.ServicesURL
	if base == "" {
		base = defaultServicesURL
	}
	return base + path
}

// Join announces to the session server that profile is about to join a
// server using online mode encryption. serverHash is the digest from
// ServerHash. The server verifies this via its hasJoined lookup.
func (s *SessionService) Join(ctx context.Context, accessToken string, profile uuid.UUID, serverHash string) error {
	req := struct {
		AccessToken     string `json:"accessToken"`
		SelectedProfile string `json:"selectedProfile"`
		ServerID        string `json:"serverId"`
	}{
		AccessToken:     accessToken,
		SelectedProfile: profile.Undashed(),
		ServerID:        serverHash,
	}
	return postJSON(ctx, s.client(), "joinServer", s.sessionURL("/session/minecraft/join"), req, nil)
}

// Profile is the account's game profile from the Minecraft services.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Skins []struct {
		ID      string `json:"id"`
		State   string `json:"state"`
		URL     string `json:"url"`
		Variant string `json:"variant"`
	} `json:"skins"`
	Capes []struct {
		ID    string `json:"id"`
		State string `json:"state"`
		URL   string `json:"url"`
		Alias string `json:"alias"`
	} `json:"capes"`
}

// UUID parses the undashed profile id.
func (p *Profile) UUID() (uuid.UUID, error) { return uuid.Parse(p.ID) }

// GameProfile fetches the game profile of the token's account.
// An account without a game license surfaces as ErrNoGameLicense.
func (s *SessionService) GameProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var p Profile
	err := getJSON(ctx, s.client(), "gameProfile", s.servicesURL("/minecraft/profile"), accessToken, &p)
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) && authErr.Status == http.StatusNotFound {
			return nil, ErrNoGameLicense
		}
		return nil, err
	}
	return &p, nil
}

// OwnsGame checks the account's entitlements for a game license.
func (s *SessionService) OwnsGame(ctx context.Context, accessToken string) (bool, error) {
	var resp struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	err := getJSON(ctx, s.client(), "entitlements", s.servicesURL("/entitlements/mcstore"), accessToken, &resp)
	if err != nil {
		return false, err
	}
	for _, item := range resp.Items {
		if item.Name == "product_minecraft" || item.Name == "game_minecraft" {
			return true, nil
		}
	}
	return false, nil
}

// PlayerCertificates fetches the chat signing certificate used for
// signed chat on 1.19 and newer.
func (s *SessionService) PlayerCertificates(ctx context.Context, accessToken string) (*Certificate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.servicesURL("/player/certificates"), nil)
	if err != nil {
		return nil, fmt.Errorf("auth: certificates: error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	var cert Certificate
	if err = do(s.client(), "certificates", req, &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}
