package services

import (
	"fmt"
	"sync"
)

// DefaultStoreCapacity bounds how many finished conversions are kept in memory
const DefaultStoreCapacity = 256

// ConversionStore is an in-memory registry of finished conversions, keyed by
// run ID. The oldest run is evicted once capacity is reached.
type ConversionStore struct {
	mu       sync.RWMutex
	runs     map[string]*ConversionResult
	order    []string
	capacity int
}

// NewConversionStore creates a store holding up to capacity runs
func NewConversionStore(capacity int) *ConversionStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &ConversionStore{
		runs:     make(map[string]*ConversionResult),
		capacity: capacity,
	}
}

// Put stores a result and returns the evicted run, if any
func (s *ConversionStore) Put(result *ConversionResult) *ConversionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[result.RunID]; !exists {
		s.order = append(s.order, result.RunID)
	}
	s.runs[result.RunID] = result

	if len(s.order) <= s.capacity {
		return nil
	}
	oldest := s.order[0]
	s.order = s.order[1:]
	evicted := s.runs[oldest]
	delete(s.runs, oldest)
	return evicted
}

// Get returns the result of run id
func (s *ConversionStore) Get(id string) (*ConversionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversionNotFound, id)
	}
	return result, nil
}

// Len returns the number of stored runs
func (s *ConversionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
