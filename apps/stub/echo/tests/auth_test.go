package tests

import (
	"context"
	"net/http"
	"testing"

	. "github.com/kramik/kramik/apps/stub/echo"
	walletsvc "github.com/kramik/kramik/services/wallet"
)

func Test_login(t *testing.T) {
	app, _ := setup(t)

	tests := []httpTest{
		{
			name:     "empty body",
			body:     []byte("{}"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":    "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name:     "malformed email",
			body:     []byte(`{"email":"nope","password":"x"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name:     "unknown portal",
			body:     []byte(`{"email":"a@x.com","password":"secret","userType":"teacher"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"userType": "must be one of: student, admin"}),
		},
		{
			name:     "wrong password on a known account",
			body:     []byte(`{"email":"demo@kramik.com","password":"wrong"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("demo account", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/login", []byte(`{"email":"demo@kramik.com","password":"demo1234"}`))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
		}
		body := decodeAuthBody(t, rec)
		if body.User.ID != "1" || body.User.Name != "Demo Student" || body.User.UserType != "student" {
			t.Errorf("user = %+v; want demo student", body.User)
		}
		claims, err := ParseToken(body.Token)
		if err != nil {
			t.Fatalf("ParseToken() failed: %v", err)
		}
		if claims.Subject != "1" {
			t.Errorf("claims.Subject = %q; want 1", claims.Subject)
		}
	})

	t.Run("unknown emails are provisioned on the fly", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/login", []byte(`{"email":"a@x.com","password":"secret"}`))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
		}
		body := decodeAuthBody(t, rec)
		if body.User.Email != "a@x.com" || body.User.UserType != "student" || body.User.ID == "" {
			t.Errorf("user = %+v; want provisioned student", body.User)
		}
	})

	t.Run("the portal tab decides the role", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/login", []byte(`{"email":"a@x.com","password":"secret","userType":"admin"}`))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
		}
		if body := decodeAuthBody(t, rec); body.User.UserType != "admin" {
			t.Errorf("userType = %q; want admin", body.User.UserType)
		}
	})
}

func Test_register(t *testing.T) {
	app, _ := setup(t)

	tests := []httpTest{
		{
			name:     "empty body",
			body:     []byte("{}"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":            "this field is required",
				"email":           "this field is required",
				"password":        "this field is required",
				"confirmPassword": "this field is required",
			}),
		},
		{
			name:     "short password",
			body:     []byte(`{"name":"Jane","email":"jane@kramik.com","password":"abc","confirmPassword":"abc"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password must be at least 6 characters in length"}),
		},
		{
			name:     "password confirmation mismatch",
			body:     []byte(`{"name":"Jane","email":"jane@kramik.com","password":"secret1","confirmPassword":"secret2"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"confirmPassword": "confirmPassword must be equal to Password"}),
		},
		{
			name:     "email already taken",
			body:     []byte(`{"name":"Impostor","email":"demo@kramik.com","password":"secret1","confirmPassword":"secret1"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "an account with this email already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/register", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("new accounts are students and can sign back in", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/register", []byte(`{"name":"Jane Doe","email":"jane@kramik.com","password":"secret1","confirmPassword":"secret1"}`))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d; want 201 (body: %s)", rec.Code, rec.Body.String())
		}
		body := decodeAuthBody(t, rec)
		if body.User.UserType != "student" || body.User.Name != "Jane Doe" {
			t.Errorf("user = %+v; want student Jane Doe", body.User)
		}
		if body.Token == "" {
			t.Error("no token returned on registration")
		}

		req, rec = newRequest(http.MethodPost, "/api/auth/login", []byte(`{"email":"jane@kramik.com","password":"secret1"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("login after register: code = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
		}
	})
}

func Test_blockchainLogin(t *testing.T) {
	app, _ := setup(t)

	signer, err := walletsvc.NewLocalSigner("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", "1")
	if err != nil {
		t.Fatalf("NewLocalSigner() failed: %v", err)
	}
	address, err := signer.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	message := "Kramik Authentication\nAddress: " + address + "\nTime: 2026-08-31T12:00:00Z"
	signature, err := signer.SignMessage(context.Background(), message)
	if err != nil {
		t.Fatalf("SignMessage() failed: %v", err)
	}

	tests := []httpTest{
		{
			name:     "malformed address",
			body:     []byte(`{"walletAddress":"0x123","signature":"` + signature + `","message":"m"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"walletAddress": "must be a valid 0x-prefixed wallet address"}),
		},
		{
			name:     "signature over a different message",
			body:     marchallObj(t, map[string]string{"walletAddress": address, "signature": signature, "message": "something else"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/blockchain-login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("valid signature", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"walletAddress": address, "signature": signature, "message": message})
		req, rec := newRequest(http.MethodPost, "/api/auth/blockchain-login", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
		}
		resp := decodeAuthBody(t, rec)
		if resp.User.WalletAddress != address || resp.User.Name != "Blockchain User" || resp.User.UserType != "student" {
			t.Errorf("user = %+v; want blockchain student at %s", resp.User, address)
		}
	})
}

func Test_verifyAndLogout(t *testing.T) {
	app, events := setup(t)

	req, rec := newRequest(http.MethodPost, "/api/auth/login", []byte(`{"email":"demo@kramik.com","password":"demo1234"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: code = %d (body: %s)", rec.Code, rec.Body.String())
	}
	token := decodeAuthBody(t, rec).Token

	tests := []httpTest{
		{
			name:     "verify without a token",
			method:   http.MethodGet,
			path:     "/api/auth/verify",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errInvalidToken),
		},
		{
			name:     "verify with a garbage token",
			method:   http.MethodGet,
			path:     "/api/auth/verify",
			token:    "not-a-jwt",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errInvalidToken),
		},
		{
			name:     "logout without a token",
			method:   http.MethodPost,
			path:     "/api/auth/logout",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errInvalidToken),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("verify resolves a live token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/verify", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
		}
		if body := decodeAuthBody(t, rec); body.User.ID != "1" {
			t.Errorf("user = %+v; want demo student", body.User)
		}
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/auth/logout", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
		}
		if got := events.all(); len(got) != 1 || got[0].UserID != "1" {
			t.Errorf("logout events = %+v; want one for user 1", got)
		}

		req, rec = newAuthRequest(http.MethodGet, "/api/auth/verify", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "token has been revoked"}),
		}, rec)
	})
}

func Test_updateProfile(t *testing.T) {
	app, _ := setup(t)

	req, rec := newRequest(http.MethodPost, "/api/auth/register", []byte(`{"name":"Jane Doe","email":"jane@kramik.com","password":"secret1","confirmPassword":"secret1"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: code = %d (body: %s)", rec.Code, rec.Body.String())
	}
	token := decodeAuthBody(t, rec).Token

	tests := []httpTest{
		{
			name:     "requires a token",
			body:     []byte(`{"name":"New Name"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errInvalidToken),
		},
		{
			name:     "malformed email",
			body:     []byte(`{"email":"nope"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name:     "email taken by another account",
			body:     []byte(`{"email":"demo@kramik.com"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "an account with this email already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/api/students/profile", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("updates stick across verify", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/students/profile", token, []byte(`{"name":"Jane Renamed"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200 (body: %s)", rec.Code, rec.Body.String())
		}
		if body := decodeAuthBody(t, rec); body.User.Name != "Jane Renamed" {
			t.Errorf("user = %+v; want renamed", body.User)
		}

		req, rec = newAuthRequest(http.MethodGet, "/api/auth/verify", token)
		app.ServeHTTP(rec, req)
		if body := decodeAuthBody(t, rec); body.User.Name != "Jane Renamed" {
			t.Errorf("verify after update: user = %+v; want renamed", body.User)
		}
	})
}
