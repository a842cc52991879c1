package wizard

import (
	"sync"

	"github.com/google/uuid"
)

// Store keeps active drafts in memory. Drafts are short-lived scratch state;
// losing them on restart is acceptable.
type Store struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]*Draft
}

func NewStore() *Store {
	return &Store{drafts: map[uuid.UUID]*Draft{}}
}

// Create starts a new draft and registers it.
func (s *Store) Create() *Draft {
	d := NewDraft()
	s.mu.Lock()
	s.drafts[d.ID] = d
	s.mu.Unlock()
	return d
}

func (s *Store) Get(id uuid.UUID) (*Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	return d, ok
}

// Delete discards a draft, typically after submission or cancellation.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
}
