// Package backendsvc wraps the Kramik REST backend: a plain HTTP client with
// credential injection on the way out and error normalization on the way in.
package backendsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kramik/kramik/core/session"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

var _ session.Backend = (*Client)(nil)

// NewClient builds the backend client. `tokens` supplies the stored
// credential for outbound authorization; `onUnauthorized` runs when the
// backend rejects a credential (typically session.Store.Clear).
func NewClient(baseURL string, tokens TokenSource, onUnauthorized func()) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: newAuthTransport(nil, tokens, onUnauthorized),
		},
	}
}

type authResponse struct {
	User  session.Identity `json:"user"`
	Token string           `json:"token"`
}

func (c *Client) Login(ctx context.Context, creds session.Credentials) (session.Identity, string, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return session.Identity{}, "", err
	}
	return resp.User, resp.Token, nil
}

func (c *Client) Register(ctx context.Context, acc session.NewAccount) (session.Identity, string, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", acc, &resp); err != nil {
		return session.Identity{}, "", err
	}
	return resp.User, resp.Token, nil
}

func (c *Client) BlockchainLogin(ctx context.Context, req session.WalletLoginRequest) (session.Identity, string, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/blockchain-login", req, &resp); err != nil {
		return session.Identity{}, "", err
	}
	return resp.User, resp.Token, nil
}

// VerifyToken resolves a credential to its identity. The token is attached
// explicitly: during the startup restore the store is not yet populated, so
// the authorizing transport has nothing to inject.
func (c *Client) VerifyToken(ctx context.Context, token string) (session.Identity, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/verify", nil)
	if err != nil {
		return session.Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp authResponse
	if err := c.send(req, &resp); err != nil {
		return session.Identity{}, err
	}
	return resp.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, patch session.ProfilePatch) (session.Identity, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPut, "/students/profile", patch, &resp); err != nil {
		return session.Identity{}, err
	}
	return resp.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		// the transport has already fired the invalidation hook
		return session.ErrSessionExpired
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return normalizeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{StatusCode: resp.StatusCode, Message: "malformed response body"}
	}
	return nil
}

// normalizeError extracts the backend's `error` message from the body, falling
// back to the HTTP status text.
func normalizeError(resp *http.Response) error {
	reqErr := &RequestError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(body) == 0 {
		return reqErr
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		reqErr.Message = payload.Error
	}
	return reqErr
}
