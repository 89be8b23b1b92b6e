package session

import (
	"context"
	"sync"
)

// expireNotifier collects expiry callbacks shared by every store flavor.
type expireNotifier struct {
	mu  sync.Mutex
	fns []func()
}

func (n *expireNotifier) OnExpire(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fns = append(n.fns, fn)
}

func (n *expireNotifier) notify() {
	n.mu.Lock()
	fns := append([]func(){}, n.fns...)
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// MemoryStore keeps the session token in process memory. Used standalone in
// tests and as the failover fallback when redis is down.
type MemoryStore struct {
	expireNotifier

	mu    sync.RWMutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryStore) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	return s.SetToken(ctx, "")
}

func (s *MemoryStore) Expire(ctx context.Context) error {
	if err := s.Clear(ctx); err != nil {
		return err
	}
	s.notify()
	return nil
}
