package backendsvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"

	"github.com/kramik/kramik/core/session"
)

type staticTokens string

func (s staticTokens) Token() (string, bool) { return string(s), s != "" }

func TestClient_attachesCredential(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"user":{"id":"1","name":"Demo","userType":"student"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens("tok-1"), nil)
	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q; want %q", gotAuth, "Bearer tok-1")
	}
}

func TestClient_anonymousRequestsCarryNoCredential(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"user":{"id":"1"},"token":"tok-1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens(""), nil)
	if _, _, err := client.Login(context.Background(), session.Credentials{Email: "a@x.com", Password: "secret"}); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q; want empty", gotAuth)
	}
}

func TestClient_unauthorizedFiresInvalidationHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	var invalidated int32
	client := NewClient(srv.URL, staticTokens("stale"), func() { atomic.AddInt32(&invalidated, 1) })

	err := client.Logout(context.Background())
	if errors.Cause(err) != session.ErrSessionExpired {
		t.Errorf("Logout() err = %v; want ErrSessionExpired", err)
	}
	if atomic.LoadInt32(&invalidated) != 1 {
		t.Errorf("invalidation hook fired %d times; want 1", invalidated)
	}
}

func TestClient_normalizesBackendErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode int
	}{
		{
			name:     "error message extracted from body",
			status:   http.StatusBadRequest,
			body:     `{"error":"authentication failed"}`,
			wantMsg:  "authentication failed",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "opaque body falls back to status text",
			status:   http.StatusBadGateway,
			body:     "<html>upstream exploded</html>",
			wantMsg:  "Bad Gateway",
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "empty body falls back to status text",
			status:   http.StatusNotFound,
			body:     "",
			wantMsg:  "Not Found",
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, staticTokens(""), nil)
			_, _, err := client.Login(context.Background(), session.Credentials{Email: "a@x.com", Password: "secret"})

			reqErr, ok := errors.Cause(err).(*RequestError)
			if !ok {
				t.Fatalf("Login() err = %v; want *RequestError", err)
			}
			if reqErr.StatusCode != tt.wantCode || reqErr.Message != tt.wantMsg {
				t.Errorf("RequestError = %d %q; want %d %q", reqErr.StatusCode, reqErr.Message, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestClient_verifyTokenUsesExplicitCredential(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"user":{"id":"1","name":"Demo","userType":"student"}}`))
	}))
	defer srv.Close()

	// the store is empty during restore; the token travels explicitly
	client := NewClient(srv.URL, staticTokens(""), nil)
	identity, err := client.VerifyToken(context.Background(), "persisted-tok")
	if err != nil {
		t.Fatalf("VerifyToken() failed: %v", err)
	}
	if gotAuth != "Bearer persisted-tok" {
		t.Errorf("Authorization = %q; want %q", gotAuth, "Bearer persisted-tok")
	}
	if identity.ID != "1" || identity.Role != session.RoleStudent {
		t.Errorf("VerifyToken() = %+v; want id 1, student", identity)
	}
}
