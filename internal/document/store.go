package document

import (
	"sync"

	"github.com/google/uuid"
)

// Store is an in-memory document record store. One mutex guards every
// read-modify-write sequence; operations are O(1) map accesses so a
// single lock is sufficient. Stored records never leak out: Get hands
// back deep copies and in-place changes go through Mutate, which runs
// under the lock.
type Store struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[uuid.UUID]*Record)}
}

// Save inserts or replaces a record. The stored copy is detached from
// the caller's pointer.
func (s *Store) Save(rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[rec.DocID] = rec.Clone()
}

// Get returns a deep copy of the record for id, or false when absent.
func (s *Store) Get(id uuid.UUID) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Update replaces the stored record for rec.DocID.
func (s *Store) Update(rec *Record) {
	s.Save(rec)
}

// Mutate runs fn on the stored record for id while holding the store
// lock, so the whole read-modify-write sequence is atomic with respect
// to every other store access. It reports whether the record exists.
func (s *Store) Mutate(id uuid.UUID, fn func(*Record)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[id]
	if !ok {
		return false
	}
	fn(rec)
	return true
}

// Delete removes the record for id if present.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
