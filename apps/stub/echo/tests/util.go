package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/kramik/kramik/apps/stub/echo"
	emailsvc "github.com/kramik/kramik/services/email"
	testutil "github.com/kramik/kramik/tests"
)

var errInvalidToken = httpErr{Error: "invalid or expired token"}

func setup(t *testing.T) (Server, *eventRecorder) {
	t.Helper()
	events := &eventRecorder{}
	app := NewServer(
		&Options{
			DisableReqLogs: true,
			Store:          NewMemoryStore(),
			Events:         events,
			MailSvc:        emailsvc.NewConsoleServiceMock(),
			Logger:         testutil.NewLogger(),
		},
	)
	return app, events
}

// eventRecorder captures published logout events.
type eventRecorder struct {
	mu     sync.Mutex
	events []LogoutEvent
}

func (r *eventRecorder) PublishLogout(ctx context.Context, userID, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, LogoutEvent{UserID: userID, TokenID: tokenID})
	return nil
}

func (r *eventRecorder) all() []LogoutEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogoutEvent(nil), r.events...)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

type authBody struct {
	User struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Email         string `json:"email"`
		UserType      string `json:"userType"`
		WalletAddress string `json:"walletAddress"`
	} `json:"user"`
	Token string `json:"token"`
}

func decodeAuthBody(t *testing.T, rec *httptest.ResponseRecorder) authBody {
	t.Helper()
	var body authBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v (body: %s)", err, rec.Body.String())
	}
	return body
}
