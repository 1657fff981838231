package session

import (
	"sync"

	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/classify"
)

// PendingRequest is a user's accepted URL awaiting a quality choice.
type PendingRequest struct {
	URL      string
	Platform classify.Platform
}

// Store holds at most one PendingRequest per user. A new Put silently
// replaces any previous entry (last URL wins).
type Store struct {
	mu      sync.Mutex
	pending map[int64]PendingRequest
}

func NewStore() *Store {
	return &Store{pending: make(map[int64]PendingRequest)}
}

func (s *Store) Put(user int64, req PendingRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[user] = req
}

// Take atomically reads and clears the user's pending request, so two quality
// clicks racing each other resolve to exactly one download.
func (s *Store) Take(user int64) (PendingRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[user]
	if ok {
		delete(s.pending, user)
	}
	return req, ok
}

func (s *Store) Clear(user int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, user)
}
