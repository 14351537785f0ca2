package stubapi

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/kramik/kramik/core/session"
)

var errEmailExists = errors.New("an account with this email already exists")

// account couples a mock identity with its password hash.
type account struct {
	identity     session.Identity
	passwordHash []byte
}

func (a *account) setPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.passwordHash = hash
	return nil
}

func (a *account) checkPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(pwd))
}

// accountTable is the stub's user "database": the hard-coded demo accounts
// plus anything registered since startup. Nothing survives a restart.
type accountTable struct {
	mu      sync.RWMutex
	byEmail map[string]*account
}

func newAccountTable() *accountTable {
	t := &accountTable{byEmail: make(map[string]*account)}
	t.seed("1", "Demo Student", "demo@kramik.com", "demo1234", session.RoleStudent)
	t.seed("2", "Demo Admin", "admin@kramik.com", "admin1234", session.RoleAdmin)
	return t
}

func (t *accountTable) seed(id, name, email, pwd string, role session.Role) {
	acct := &account{identity: session.Identity{ID: id, Name: name, Email: email, Role: role}}
	if err := acct.setPassword(pwd); err != nil {
		panic(err) // static demo data; cannot fail
	}
	t.byEmail[email] = acct
}

func (t *accountTable) get(email string) (*account, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	acct, ok := t.byEmail[email]
	return acct, ok
}

func (t *accountTable) getByID(id string) (*account, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, acct := range t.byEmail {
		if acct.identity.ID == id {
			return acct, true
		}
	}
	return nil, false
}

func (t *accountTable) add(acct *account) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.byEmail[acct.identity.Email]; exists {
		return errEmailExists
	}
	t.byEmail[acct.identity.Email] = acct
	return nil
}

func (t *accountTable) update(identity session.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for email, acct := range t.byEmail {
		if acct.identity.ID == identity.ID {
			if email != identity.Email {
				delete(t.byEmail, email)
			}
			acct.identity = identity
			t.byEmail[identity.Email] = acct
			return
		}
	}
}
