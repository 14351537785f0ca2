package backendsvc

import "net/http"

// TokenSource yields the current session credential. *session.Store satisfies it.
type TokenSource interface {
	Token() (string, bool)
}

// authTransport attaches the stored credential to every outbound request and
// reacts to an unauthorized response by firing the invalidation hook.
// The Session Store is handed in explicitly at construction; nothing here
// reaches for ambient state.
type authTransport struct {
	base           http.RoundTripper
	tokens         TokenSource
	onUnauthorized func()
}

var _ http.RoundTripper = (*authTransport)(nil)

func newAuthTransport(base http.RoundTripper, tokens TokenSource, onUnauthorized func()) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base, tokens: tokens, onUnauthorized: onUnauthorized}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" {
		if token, ok := t.tokens.Token(); ok {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// token expired or invalid: the session is no longer trustworthy
	if resp.StatusCode == http.StatusUnauthorized && t.onUnauthorized != nil {
		t.onUnauthorized()
	}
	return resp, nil
}
