package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStore implements Store in process memory for tests and local
// development. Envelopes are held in encoded form so the serialization
// contract is exercised exactly as with the Redis backend.
//
// The arrival counter is process-local, which is acceptable for the
// single-process scope this store targets.
type MemoryStore struct {
	mu      sync.Mutex
	members map[uint64][]byte
	keys    []uint64 // sorted ascending
	seq     uint64
}

// NewMemoryStore creates an empty in-memory ordered task store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members: make(map[uint64][]byte),
	}
}

// Insert adds the envelope under the next arrival sequence.
func (s *MemoryStore) Insert(ctx context.Context, e *Envelope) error {
	if e == nil {
		return errors.New("envelope cannot be nil")
	}
	if !e.Priority.Valid() {
		return ErrInvalidPriority
	}

	data, err := EncodeEnvelope(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	score, err := Score(e.Priority, s.seq)
	if err != nil {
		return err
	}
	key := uint64(score)

	s.members[key] = data
	idx := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= key })
	s.keys = append(s.keys, 0)
	copy(s.keys[idx+1:], s.keys[idx:])
	s.keys[idx] = key

	return nil
}

// TakeLowest removes and returns the minimum-key envelope, or (nil, nil)
// when the store is empty. The read and the remove happen under the same
// lock acquisition, mirroring the backend's atomicity guarantee.
func (s *MemoryStore) TakeLowest(ctx context.Context) (*Envelope, error) {
	s.mu.Lock()
	if len(s.keys) == 0 {
		s.mu.Unlock()
		return nil, nil
	}

	key := s.keys[0]
	data := s.members[key]
	s.keys = s.keys[1:]
	delete(s.members, key)
	s.mu.Unlock()

	return DecodeEnvelope(data)
}

// PeekLowest returns the minimum-key envelope without removing it.
func (s *MemoryStore) PeekLowest(ctx context.Context) (*Envelope, error) {
	s.mu.Lock()
	if len(s.keys) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	data := s.members[s.keys[0]]
	s.mu.Unlock()

	return DecodeEnvelope(data)
}

// Size returns the number of envelopes currently present.
func (s *MemoryStore) Size(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.members)), nil
}

// Clear removes all envelopes and resets the arrival counter.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members = make(map[uint64][]byte)
	s.keys = nil
	s.seq = 0
	return nil
}
