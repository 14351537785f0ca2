// Package dummy provides a scripted wallet capability for tests.
package dummy

import (
	"context"
	"sync"

	"github.com/kramik/kramik/core/wallet"
)

type Service struct {
	Address   string
	Signature string

	// scripted failures
	Unavailable   bool
	RejectConnect bool
	RejectSign    bool

	mu        sync.Mutex
	connected bool

	accountCh chan string
	chainCh   chan string
}

var _ wallet.Capability = (*Service)(nil)

func NewService(address, signature string) *Service {
	return &Service{
		Address:   address,
		Signature: signature,
		accountCh: make(chan string, 1),
		chainCh:   make(chan string, 1),
	}
}

func (s *Service) Connect(ctx context.Context) (string, error) {
	if s.Unavailable {
		return "", wallet.ErrWalletUnavailable
	}
	if s.RejectConnect {
		return "", wallet.ErrWalletRejected
	}
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return s.Address, nil
}

func (s *Service) SignMessage(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected || s.RejectSign {
		return "", wallet.ErrWalletRejected
	}
	return s.Signature, nil
}

func (s *Service) AccountChanges() <-chan string { return s.accountCh }
func (s *Service) ChainChanges() <-chan string   { return s.chainCh }
