package profile

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MockStore implements Service for unit tests. Writes can be made to fail per
// field group with FailGroup.
type MockStore struct {
	mu           sync.RWMutex
	records      map[string]*Record
	failGroups   map[string]error
	failGet      error
	failComplete error
	writes       map[string]int
	minInterests int
}

// NewMockStore creates a new mock store.
func NewMockStore(minInterests int) *MockStore {
	return &MockStore{
		records:      make(map[string]*Record),
		failGroups:   make(map[string]error),
		writes:       make(map[string]int),
		minInterests: minInterests,
	}
}

func (m *MockStore) Get(ctx context.Context, userID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failGet != nil {
		return nil, m.failGet
	}
	r, exists := m.records[userID]
	if !exists {
		return nil, ErrNotFound
	}
	return clone(r), nil
}

func (m *MockStore) UpsertGroup(ctx context.Context, userID string, group Group) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failGroups[group.Name()]; err != nil {
		return nil, err
	}
	rec := m.current(userID)
	group.apply(rec)
	finish(rec, userID, rec.OnboardingCompleted, m.minInterests, time.Now().UTC())
	m.records[userID] = rec
	m.writes[group.Name()]++
	return clone(rec), nil
}

func (m *MockStore) Complete(ctx context.Context, userID string, in Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failComplete != nil {
		return nil, m.failComplete
	}
	if !in.IsComplete(m.minInterests) {
		return nil, ErrIncomplete
	}
	rec := m.current(userID)
	for _, g := range Groups(in) {
		g.apply(rec)
	}
	finish(rec, userID, true, m.minInterests, time.Now().UTC())
	m.records[userID] = rec
	m.writes["finalize"]++
	return clone(rec), nil
}

// current returns a working copy of the stored record or a fresh one.
func (m *MockStore) current(userID string) *Record {
	if r, ok := m.records[userID]; ok {
		return clone(r)
	}
	return &Record{ShowGender: true, Photos: []string{}, Interests: []string{}}
}

// FailGroup makes writes of the named group return err. A nil err clears it.
func (m *MockStore) FailGroup(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failGroups, name)
		return
	}
	m.failGroups[name] = err
}

// FailGet makes Get return err. A nil err clears it.
func (m *MockStore) FailGet(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGet = err
}

// FailComplete makes Complete return err. A nil err clears it.
func (m *MockStore) FailComplete(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failComplete = err
}

// Put stores rec as-is (useful for test setup).
func (m *MockStore) Put(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.UserID] = clone(&rec)
}

// Writes returns how many successful writes the named group (or "finalize")
// has seen.
func (m *MockStore) Writes(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[name]
}

// Len returns the number of stored records.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func clone(r *Record) *Record {
	c := *r
	c.Photos = slices.Clone(r.Photos)
	c.Interests = slices.Clone(r.Interests)
	if r.BirthDate != nil {
		d := *r.BirthDate
		c.BirthDate = &d
	}
	return &c
}

// Compile-time interface check
var _ Service = (*MockStore)(nil)
