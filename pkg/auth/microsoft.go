package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	msTokenURL  = "https://login.live.com/oauth20_token.srf"
	msScope     = "service::user.auth.xboxlive.com::MBI_SSL"
	msRedirect  = "https://login.live.com/oauth20_desktop.srf"
	xblAuthURL  = "https://user.auth.xboxlive.com/user/authenticate"
	xstsAuthURL = "https://xsts.auth.xboxlive.com/xsts/authorize"
	mcLoginURL  = "https://api.minecraftservices.com/authentication/login_with_xbox"

	// Client id of the official launcher, accepted by the oauth
	// endpoints for third-party clients.
	msClientID = "00000000402b5328"
)

// XSTSError is a 401 from the XSTS authorization step. XErr is the
// vendor error code and Explanation a human readable translation of
// the known codes.
type XSTSError struct {
	XErr        int64
	Message     string
	Explanation string
}

func (e *XSTSError) Error() string {
	if e.Explanation != "" {
		return fmt.Sprintf("auth: xsts: %s (XErr %d)", e.Explanation, e.XErr)
	}
	return fmt.Sprintf("auth: xsts: authorization denied (XErr %d): %s", e.XErr, e.Message)
}

var xstsExplanations = map[int64]string{
	2148916233: "this Microsoft account has no Xbox account, sign into Xbox once to create one",
	2148916235: "Xbox Live is not available in this account's country",
	2148916236: "the account needs adult verification on the Xbox page",
	2148916237: "the account needs adult verification on the Xbox page",
	2148916238: "the account belongs to a minor and must be added to a family by an adult",
}

// Microsoft runs the Microsoft OAuth, Xbox Live and XSTS token chain
// ending in a Minecraft access token.
type Microsoft struct {
	// The http client to query the services.
	// If none is set, a new one is created.
	Client *http.Client

	cli *http.Client
}

func (m *Microsoft) client() *http.Client {
	if m.cli == nil {
		m.cli = newClient(m.Client)
	}
	return m.cli
}

// MSToken is a Microsoft OAuth token pair.
type MSToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthToken redeems the authorization code of the interactive
// Microsoft login for an access and refresh token.
func (m *Microsoft) AuthToken(ctx context.Context, authCode string) (*MSToken, error) {
	return m.msToken(ctx, url.Values{
		"client_id":    {msClientID},
		"code":         {authCode},
		"grant_type":   {"authorization_code"},
		"redirect_uri": {msRedirect},
		"scope":        {msScope},
	})
}

// RefreshToken exchanges a refresh token for a fresh token pair.
func (m *Microsoft) RefreshToken(ctx context.Context, refreshToken string) (*MSToken, error) {
	return m.msToken(ctx, url.Values{
		"client_id":     {msClientID},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
		"scope":         {msScope},
	})
}

func (m *Microsoft) msToken(ctx context.Context, form url.Values) (*MSToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msTokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("auth: msToken: error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var token MSToken
	if err = do(m.client(), "msToken", req, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("auth: msToken: response misses access_token")
	}
	return &token, nil
}

type xboxTokenResponse struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		XUI []struct {
			UHS string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

func (r *xboxTokenResponse) userHash() string {
	if len(r.DisplayClaims.XUI) == 0 {
		return ""
	}
	return r.DisplayClaims.XUI[0].UHS
}

// XboxLiveToken authenticates the Microsoft token against Xbox Live
// and returns the XBL token and user hash.
func (m *Microsoft) XboxLiveToken(ctx context.Context, msAccessToken string) (token, userHash string, err error) {
	req := map[string]any{
		"Properties": map[string]any{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  msAccessToken,
		},
		"RelyingParty": "http://auth.xboxlive.com",
		"TokenType":    "JWT",
	}
	var resp xboxTokenResponse
	if err = postJSON(ctx, m.client(), "xboxLive", xblAuthURL, req, &resp); err != nil {
		return "", "", err
	}
	if resp.Token == "" || resp.userHash() == "" {
		return "", "", errors.New("auth: xboxLive: response misses token or user hash")
	}
	return resp.Token, resp.userHash(), nil
}

// XSTSToken authorizes the XBL token for the Minecraft services
// relying party. A denied authorization surfaces as *XSTSError.
func (m *Microsoft) XSTSToken(ctx context.Context, xblToken string) (token, userHash string, err error) {
	req := map[string]any{
		"Properties": map[string]any{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{xblToken},
		},
		"RelyingParty": "rp://api.minecraftservices.com/",
		"TokenType":    "JWT",
	}
	var resp xboxTokenResponse
	err = postJSON(ctx, m.client(), "xsts", xstsAuthURL, req, &resp)
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) && authErr.Status == http.StatusUnauthorized {
			return "", "", xstsError(authErr.Body)
		}
		return "", "", err
	}
	if resp.Token == "" || resp.userHash() == "" {
		return "", "", errors.New("auth: xsts: response misses token or user hash")
	}
	return resp.Token, resp.userHash(), nil
}

func xstsError(body []byte) error {
	var resp struct {
		XErr    int64  `json:"XErr"`
		Message string `json:"Message"`
	}
	_ = json.Unmarshal(body, &resp)
	return &XSTSError{
		XErr:        resp.XErr,
		Message:     resp.Message,
		Explanation: xstsExplanations[resp.XErr],
	}
}

// MinecraftToken logs into the Minecraft services with the XSTS token
// and returns the game access token used by all further service calls.
func (m *Microsoft) MinecraftToken(ctx context.Context, xstsToken, userHash string) (string, error) {
	req := map[string]string{
		"identityToken": fmt.Sprintf("XBL3.0 x=%s;%s", userHash, xstsToken),
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := postJSON(ctx, m.client(), "loginWithXbox", mcLoginURL, req, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errors.New("auth: loginWithXbox: response misses access_token")
	}
	return resp.AccessToken, nil
}

// Login runs the full chain from a Microsoft access token to a
// Minecraft access token.
func (m *Microsoft) Login(ctx context.Context, msAccessToken string) (string, error) {
	xbl, _, err := m.XboxLiveToken(ctx, msAccessToken)
	if err != nil {
		return "", err
	}
	xsts, userHash, err := m.XSTSToken(ctx, xbl)
	if err != nil {
		return "", err
	}
	return m.MinecraftToken(ctx, xsts, userHash)
}
