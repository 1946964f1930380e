// Package cache is the client's ephemeral query cache. Entries live in
// memory only and are invalidated, never refreshed in place, after any
// mutation that could change them.
package cache

import (
	"fmt"
	"strings"
	"sync"
)

func RoleKey(email string) string { return "role:" + email }

func RegistrationKey(email, contestID string) string {
	return fmt.Sprintf("registration:%s:%s", email, contestID)
}

func ContestKey(id string) string { return "contest:" + id }

type Store struct {
	mu sync.Mutex
	m  map[string]any
}

func New() *Store {
	return &Store{m: map[string]any{}}
}

func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *Store) Set(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = v
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

// InvalidatePrefix drops every entry whose key starts with prefix.
func (s *Store) InvalidatePrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.m {
		if strings.HasPrefix(k, prefix) {
			delete(s.m, k)
		}
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = map[string]any{}
}
