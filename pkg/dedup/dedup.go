// Package dedup provides small in-memory membership sets used to suppress
// redundant work. They are best-effort: bounded, process-local, and not a
// substitute for storage-level dedup keys.
package dedup

import "sync"

// BoundedSet is an insertion-ordered string set with a hard capacity ceiling.
// When an insert pushes the set past its capacity, the oldest half is evicted
// in one sweep, amortizing eviction cost over many inserts.
type BoundedSet struct {
	mu       sync.Mutex
	capacity int
	order    []string
	seen     map[string]struct{}
}

func NewBoundedSet(capacity int) *BoundedSet {
	if capacity < 2 {
		capacity = 2
	}
	return &BoundedSet{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

func (s *BoundedSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

func (s *BoundedSet) Add(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.order = append(s.order, key)

	if len(s.order) > s.capacity {
		drop := len(s.order) / 2
		for _, old := range s.order[:drop] {
			delete(s.seen, old)
		}
		s.order = append(s.order[:0:0], s.order[drop:]...)
	}
}

func (s *BoundedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
