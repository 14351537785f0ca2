// Package wallet adapts an external signing provider into the two operations
// the login flow needs: account access and personal message signing.
// Challenge message construction is the caller's responsibility; the capability
// never fabricates message content.
package wallet

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrWalletUnavailable is returned when no signing provider is configured.
	ErrWalletUnavailable = errors.New("no wallet provider available")

	// ErrWalletRejected is returned when the provider or user declines the request,
	// or when signing is attempted without a connected account.
	ErrWalletRejected = errors.New("wallet request rejected")
)

// Capability is the provider-agnostic wallet surface.
type Capability interface {
	// Connect requests account access and returns the active account address.
	Connect(ctx context.Context) (string, error)

	// SignMessage signs `message` with the connected account and returns the
	// 0x-prefixed hex signature.
	SignMessage(ctx context.Context, message string) (string, error)

	// AccountChanges notifies account switches; an empty address means the
	// provider disconnected all accounts.
	AccountChanges() <-chan string

	// ChainChanges notifies network switches. Cached contract bindings are
	// invalid after a switch, so consumers must reload dependent state.
	ChainChanges() <-chan string
}
