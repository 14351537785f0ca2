// Package walletsvc implements the wallet capability over a locally held
// Ethereum key. It stands in for a browser-injected provider in a single-user
// client; session logic stays provider-agnostic behind wallet.Capability.
package walletsvc

import (
	"context"
	"crypto/ecdsa"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/kramik/kramik/core/wallet"
)

const eventBuffer = 8

type localSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID string

	mu        sync.Mutex
	connected bool

	accountCh chan string
	chainCh   chan string
}

var _ wallet.Capability = (*localSigner)(nil)

// NewLocalSigner builds a capability from a hex-encoded private key (without
// 0x prefix). An empty key yields a capability whose Connect reports the
// provider unavailable, mirroring a missing browser extension.
func NewLocalSigner(keyHex, chainID string) (wallet.Capability, error) {
	s := &localSigner{
		chainID:   chainID,
		accountCh: make(chan string, eventBuffer),
		chainCh:   make(chan string, eventBuffer),
	}
	if keyHex == "" {
		return s, nil
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, errors.Wrap(err, "parsing wallet key")
	}
	s.key = key
	s.address = crypto.PubkeyToAddress(key.PublicKey)
	return s, nil
}

func (s *localSigner) Connect(ctx context.Context) (string, error) {
	if s.key == nil {
		return "", wallet.ErrWalletUnavailable
	}
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()

	addr := s.address.Hex()
	s.emit(s.accountCh, addr)
	return addr, nil
}

// SignMessage produces an EIP-191 personal-sign signature over `message`.
func (s *localSigner) SignMessage(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if s.key == nil || !connected {
		return "", wallet.ErrWalletRejected
	}

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), s.key)
	if err != nil {
		return "", errors.Wrap(err, "signing message")
	}
	sig[crypto.RecoveryIDOffset] += 27 // legacy V encoding, what providers emit
	return hexutil.Encode(sig), nil
}

func (s *localSigner) AccountChanges() <-chan string {
	return s.accountCh
}

func (s *localSigner) ChainChanges() <-chan string {
	return s.chainCh
}

// Disconnect simulates the provider dropping all accounts.
func (s *localSigner) Disconnect() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	s.emit(s.accountCh, "")
}

// SwitchChain simulates a network switch; consumers reload dependent state.
func (s *localSigner) SwitchChain(chainID string) {
	s.chainID = chainID
	s.emit(s.chainCh, chainID)
}

func (s *localSigner) emit(ch chan string, v string) {
	select {
	case ch <- v:
	default: // slow consumer; drop rather than block the provider
	}
}
