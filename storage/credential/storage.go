// Package credential persists the session credential across process runs.
// One durable key only; the identity itself is always re-derived, never stored.
package credential

import "github.com/pkg/errors"

// Key is the single durable key holding the opaque credential string.
const Key = "kramik_token"

var ErrNotFound = errors.New("credential not found")

type Storage interface {
	// Read returns the persisted credential or ErrNotFound.
	Read() (string, error)
	Write(token string) error
	// Delete removes the persisted credential. Deleting an absent credential is not an error.
	Delete() error
}
