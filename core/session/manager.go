package session

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/kramik/kramik/core"
)

// Backend is the REST surface the session layer consumes. Implemented by
// services/backend.Client; faked in tests.
type Backend interface {
	Login(ctx context.Context, creds Credentials) (Identity, string, error)
	Register(ctx context.Context, acc NewAccount) (Identity, string, error)
	BlockchainLogin(ctx context.Context, req WalletLoginRequest) (Identity, string, error)
	VerifyToken(ctx context.Context, token string) (Identity, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, patch ProfilePatch) (Identity, error)
}

// Manager is the sole entry point for changing authentication state.
//
// Operations mutate the Store only after the dependent backend call resolved
// successfully, so an in-flight failure leaves prior session state untouched.
// Two concurrent attempts are not serialized beyond memory safety: the last
// one to resolve wins and overwrites the Store. Acceptable for user-initiated
// UI actions (a double-submit races two identical logins).
type Manager struct {
	store    *Store
	backend  Backend
	validate *validator.Validate
	logger   core.Logger

	mu       sync.RWMutex
	inflight int
	lastErr  error
}

func NewManager(store *Store, backend Backend, validate *validator.Validate, logger core.Logger) *Manager {
	return &Manager{
		store:    store,
		backend:  backend,
		validate: validate,
		logger:   logger,
	}
}

// Restore runs the startup credential check. Must complete before dependent
// views render.
func (m *Manager) Restore(ctx context.Context) {
	m.store.Restore(ctx, m.backend.VerifyToken)
}

// Login authenticates with an email/password pair.
func (m *Manager) Login(ctx context.Context, creds Credentials) (Identity, error) {
	done := m.begin()
	defer done()

	if err := creds.Validate(m.validate); err != nil {
		return Identity{}, m.fail(err)
	}

	identity, token, err := m.backend.Login(ctx, creds)
	if err != nil {
		return Identity{}, m.fail(authError(err))
	}
	if err := m.store.Set(identity, token); err != nil {
		return Identity{}, m.fail(err)
	}
	return identity, nil
}

// Register creates a new account. New accounts always carry the student role.
func (m *Manager) Register(ctx context.Context, acc NewAccount) (Identity, error) {
	done := m.begin()
	defer done()

	if err := acc.Validate(m.validate); err != nil {
		return Identity{}, m.fail(err)
	}

	identity, token, err := m.backend.Register(ctx, acc)
	if err != nil {
		return Identity{}, m.fail(authError(err))
	}
	identity.Role = RoleStudent
	if err := m.store.Set(identity, token); err != nil {
		return Identity{}, m.fail(err)
	}
	return identity, nil
}

// WalletLogin exchanges an already-signed challenge message for a session.
// Producing the message and signature is the caller's business (via the
// wallet capability); the manager never fabricates either.
func (m *Manager) WalletLogin(ctx context.Context, req WalletLoginRequest) (Identity, error) {
	done := m.begin()
	defer done()

	if err := req.Validate(m.validate); err != nil {
		return Identity{}, m.fail(err)
	}

	identity, token, err := m.backend.BlockchainLogin(ctx, req)
	if err != nil {
		return Identity{}, m.fail(authError(err))
	}
	if identity.WalletAddress == "" {
		identity.WalletAddress = req.WalletAddress
	}
	if err := m.store.Set(identity, token); err != nil {
		return Identity{}, m.fail(err)
	}
	return identity, nil
}

// Logout unconditionally clears the session. It never fails: the backend
// notification is best effort.
func (m *Manager) Logout(ctx context.Context) {
	done := m.begin()
	defer done()

	if _, ok := m.store.Token(); ok {
		if err := m.backend.Logout(ctx); err != nil {
			m.logger.Warn("backend logout failed", err)
		}
	}
	m.store.Clear()
}

// UpdateProfile merges the patch onto the current identity and persists the
// replacement wholesale.
func (m *Manager) UpdateProfile(ctx context.Context, patch ProfilePatch) (Identity, error) {
	done := m.begin()
	defer done()

	if _, ok := m.store.Identity(); !ok {
		return Identity{}, m.fail(core.NewValidationError(ErrNoActiveSession))
	}
	if err := patch.Validate(m.validate); err != nil {
		return Identity{}, m.fail(err)
	}

	identity, err := m.backend.UpdateProfile(ctx, patch)
	if err != nil {
		return Identity{}, m.fail(authError(err))
	}
	token, _ := m.store.Token()
	if err := m.store.Set(identity, token); err != nil {
		return Identity{}, m.fail(err)
	}
	return identity, nil
}

// Invalidate is the hook the request authorizer fires when the backend
// signals an expired session: clear everything, force re-authentication.
func (m *Manager) Invalidate() {
	m.store.Clear()
}

// Derived read-only state.

func (m *Manager) IsAuthenticated() bool {
	_, ok := m.store.Identity()
	return ok
}

func (m *Manager) IsAdmin() bool {
	identity, ok := m.store.Identity()
	return ok && identity.IsAdmin()
}

func (m *Manager) IsStudent() bool {
	identity, ok := m.store.Identity()
	return ok && identity.IsStudent()
}

func (m *Manager) Identity() (Identity, bool) {
	return m.store.Identity()
}

func (m *Manager) Resolved() bool {
	return m.store.Resolved()
}

// Busy reports whether any authentication operation is in flight. Overlapping
// operations are counted, so Busy stays true until the last one resolves.
func (m *Manager) Busy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inflight > 0
}

// Err returns the failure of the most recent operation, if any.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) begin() func() {
	m.mu.Lock()
	m.inflight++
	m.lastErr = nil
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.inflight--
		m.mu.Unlock()
	}
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	return err
}

// authError folds backend rejections into the authentication taxonomy,
// keeping session-expiry and validation causes intact.
func authError(err error) error {
	switch cause := errors.Cause(err); cause.(type) {
	case *core.ValidationError:
		return err
	default:
		if cause == ErrSessionExpired {
			return err
		}
	}
	return errors.WithMessage(ErrAuthenticationFailed, err.Error())
}
