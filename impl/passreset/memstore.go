package passreset

import (
	"context"
	"sync"
	"time"
	"vetgate/entity"
)

// MemoryStore keeps reset tokens in a mutex-guarded map. Tokens do not
// survive a restart and are not shared across instances, which is acceptable
// for the single fixed admin account this store backs. Consumption deletes
// the entry, so a spent token is indistinguishable from an unknown one.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]entity.ResetToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]entity.ResetToken)}
}

func (s *MemoryStore) SaveResetToken(_ context.Context, t *entity.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.Token] = *t
	return nil
}

func (s *MemoryStore) GetResetToken(_ context.Context, token string) (*entity.ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, entity.ErrNotFound
	}
	out := t
	return &out, nil
}

func (s *MemoryStore) ConsumeResetToken(_ context.Context, token string, now time.Time) (*entity.ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, entity.ErrNotFound
	}
	if !now.Before(t.ExpiresAt) {
		delete(s.tokens, token)
		return nil, entity.ErrExpired
	}
	delete(s.tokens, token)
	out := t
	out.Used = true
	return &out, nil
}

func (s *MemoryStore) DeleteStaleResetTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, t := range s.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(s.tokens, key)
			n++
		}
	}
	return n, nil
}

// Len reports the number of live entries; used by tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
