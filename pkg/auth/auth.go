// Package auth implements the account side of joining online mode
// servers: the legacy Yggdrasil login, the Microsoft/Xbox Live token
// chain and the Mojang session services.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.craftchat.dev/craftchat/pkg/version"
)

// Error is a failed request against one of the account services.
// Code and Cause carry the upstream error identifiers when the service
// returned a JSON error body.
type Error struct {
	Op      string // the operation that failed, e.g. "authenticate"
	Status  int    // http status code, 0 on transport errors
	Code    string
	Message string
	Cause   string
	Body    []byte // raw response body for callers needing more detail
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("auth: %s: unexpected status code %d", e.Op, e.Status)
	}
	return fmt.Sprintf("auth: %s: %s: %s", e.Op, e.Code, e.Message)
}

// errorBody is the JSON error shape shared by the Mojang services.
type errorBody struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	Cause        string `json:"cause"`
	// Minecraft services use different field names for the same thing.
	Path             string `json:"path"`
	ErrorType        string `json:"errorType"`
	DeveloperMessage string `json:"developerMessage"`
}

func newError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Status: status, Body: body}
	var b errorBody
	if json.Unmarshal(body, &b) == nil {
		e.Code = b.Error
		e.Message = b.ErrorMessage
		e.Cause = b.Cause
		if e.Code == "" {
			e.Code = b.ErrorType
		}
		if e.Message == "" {
			e.Message = b.DeveloperMessage
		}
	}
	return e
}

func newClient(cli *http.Client) *http.Client {
	if cli == nil {
		cli = &http.Client{Timeout: time.Second * 10}
	}
	cli.Transport = withHeader(cli.Transport, version.UserAgentHeader())
	return cli
}

// postJSON sends body as JSON and decodes a 2xx response into out.
// A nil out discards the response body.
func postJSON(ctx context.Context, cli *http.Client, op, url string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("auth: %s: error marshaling request: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, rd)
	if err != nil {
		return fmt.Errorf("auth: %s: error creating request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return do(cli, op, req, out)
}

func getJSON(ctx context.Context, cli *http.Client, op, url, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("auth: %s: error creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return do(cli, op, req, out)
}

func do(cli *http.Client, op string, req *http.Request, out any) error {
	resp, err := cli.Do(req)
	if err != nil {
		return fmt.Errorf("auth: %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("auth: %s: error reading response body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(op, resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("auth: %s: error unmarshaling response: %w", op, err)
	}
	return nil
}

func withHeader(rt http.RoundTripper, header http.Header) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return headerRoundTripper{Header: header, rt: rt}
}

type headerRoundTripper struct {
	http.Header
	rt http.RoundTripper
}

func (h headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range h.Header {
		req.Header[k] = v
	}
	return h.rt.RoundTrip(req)
}
