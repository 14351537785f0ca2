package tests

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stubapi "github.com/kramik/kramik/apps/stub/echo"
	. "github.com/kramik/kramik/apps/web/echo"
	"github.com/kramik/kramik/core/session"
	"github.com/kramik/kramik/core/wallet"
	backendsvc "github.com/kramik/kramik/services/backend"
	emailsvc "github.com/kramik/kramik/services/email"
	walletsvc "github.com/kramik/kramik/services/wallet"
	"github.com/kramik/kramik/storage/credential"
	testutil "github.com/kramik/kramik/tests"
)

// well-known throwaway dev key, never funded
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// stack is a full client stack wired against an in-process stub backend.
type stack struct {
	app     Server
	manager *session.Manager
	store   *session.Store
	storage credential.Storage
	backend *backendsvc.Client
	wallet  wallet.Capability
	stubURL string
}

func setup(t *testing.T, opts ...func(*Options)) *stack {
	t.Helper()

	stubApp := stubapi.NewServer(
		&stubapi.Options{
			DisableReqLogs: true,
			Store:          stubapi.NewMemoryStore(),
			Events:         nopEvents{},
			MailSvc:        emailsvc.NewConsoleServiceMock(),
			Logger:         testutil.NewLogger(),
		},
	)
	srv := httptest.NewServer(stubApp)
	t.Cleanup(srv.Close)

	storage := credential.NewMemoryStorage()
	store := session.NewStore(storage)
	backend := backendsvc.NewClient(srv.URL+"/api", store, store.Clear)
	validate, translator := testutil.NewValidator()
	manager := session.NewManager(store, backend, validate, testutil.NewLogger())
	manager.Restore(context.Background())

	signer, err := walletsvc.NewLocalSigner(testKeyHex, "1")
	if err != nil {
		t.Fatalf("NewLocalSigner() failed: %v", err)
	}

	options := &Options{
		DisableReqLogs: true,
		Manager:        manager,
		Wallet:         signer,
		Logger:         testutil.NewLogger(),
		Translator:     translator,
	}
	for _, opt := range opts {
		opt(options)
	}

	app := NewServer(options)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = app.Stop(ctx)
	})

	return &stack{
		app:     app,
		manager: manager,
		store:   store,
		storage: storage,
		backend: backend,
		wallet:  options.Wallet,
		stubURL: srv.URL,
	}
}

type nopEvents struct{}

func (nopEvents) PublishLogout(ctx context.Context, userID, tokenID string) error { return nil }

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func checkRedirect(t *testing.T, rec *httptest.ResponseRecorder, wantLocation string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("code = %d; want 303 (body: %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != wantLocation {
		t.Errorf("Location = %q; want %q", got, wantLocation)
	}
}
