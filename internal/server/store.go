package server

import (
	"sync"
	"time"

	"github.com/lox/creator-discovery/internal/discovery"
	"github.com/lox/creator-discovery/internal/types"
)

// ResultStore owns finished search responses so deep analysis updates can
// be applied after the HTTP response has gone out. Entries expire after the
// TTL; nothing is persisted.
type ResultStore struct {
	mu      sync.Mutex
	entries map[string]storedResult
	ttl     time.Duration
	now     func() time.Time
}

type storedResult struct {
	resp    types.SearchResponse
	expires time.Time
}

func NewResultStore(ttl time.Duration) *ResultStore {
	return &ResultStore{
		entries: make(map[string]storedResult),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores a copy of resp under its request ID
func (s *ResultStore) Put(resp types.SearchResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.entries[resp.RequestID] = storedResult{resp: clone(resp), expires: s.now().Add(s.ttl)}
}

// Get returns a copy of the stored response
func (s *ResultStore) Get(id string) (types.SearchResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || s.now().After(e.expires) {
		return types.SearchResponse{}, false
	}
	return clone(e.resp), true
}

// Consume applies updates until the channel closes, returning how many
// landed. Updates for expired or unknown searches are dropped.
func (s *ResultStore) Consume(updates <-chan discovery.ScoreUpdate) int {
	applied := 0
	for u := range updates {
		s.mu.Lock()
		if e, ok := s.entries[u.RequestID]; ok && discovery.Apply(&e.resp, u) {
			s.entries[u.RequestID] = e
			applied++
		}
		s.mu.Unlock()
	}
	return applied
}

// Len reports the number of live entries
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.entries)
}

func (s *ResultStore) sweepLocked() {
	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, id)
		}
	}
}

func clone(resp types.SearchResponse) types.SearchResponse {
	resp.Matches = append([]types.MatchResult(nil), resp.Matches...)
	resp.RequiredCriteria = append([]string(nil), resp.RequiredCriteria...)
	return resp
}
