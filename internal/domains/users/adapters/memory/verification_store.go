package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aromaline/storefront/internal/domains/users/domain"
	"github.com/aromaline/storefront/internal/domains/users/ports"
)

var _ ports.VerificationStore = (*VerificationStore)(nil)

// VerificationStore keeps pending phone codes in memory.
type VerificationStore struct {
	mu      sync.Mutex
	pending map[string]domain.Verification
}

func NewVerificationStore() *VerificationStore {
	return &VerificationStore{pending: map[string]domain.Verification{}}
}

func (s *VerificationStore) Get(_ context.Context, userID string) (*domain.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.pending[userID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *VerificationStore) Save(_ context.Context, verification domain.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[verification.UserID] = verification
	return nil
}

func (s *VerificationStore) SpendAttempt(_ context.Context, userID, phone string, now time.Time) (*domain.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.pending[userID]
	if !ok {
		return nil, domain.ErrNoPendingVerification
	}
	if err := v.CheckAttempt(phone, now); err != nil {
		return nil, err
	}
	s.pending[userID] = v
	return &v, nil
}

func (s *VerificationStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
	return nil
}
