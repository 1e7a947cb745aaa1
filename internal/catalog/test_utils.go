// test_utils.go: shared test doubles for catalog service tests.
package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/tphakala/bird-catalog/internal/datastore"
	"github.com/tphakala/bird-catalog/internal/errors"
)

// MockDataStore implements datastore.Interface for testing with explicit
// expectations.
type MockDataStore struct {
	mock.Mock
}

func (m *MockDataStore) Open() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDataStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDataStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDataStore) Insert(ctx context.Context, species *datastore.Species) (string, error) {
	args := m.Called(ctx, species)
	return args.String(0), args.Error(1)
}

func (m *MockDataStore) GetByLabel(ctx context.Context, soundLabel string) (*datastore.Species, error) {
	args := m.Called(ctx, soundLabel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.Species), args.Error(1)
}

func (m *MockDataStore) GetAll(ctx context.Context) ([]datastore.Species, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datastore.Species), args.Error(1)
}

func (m *MockDataStore) IncrementRecognition(ctx context.Context, soundLabel string) (int64, error) {
	args := m.Called(ctx, soundLabel)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) CountSpecies(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// memStore is a thread-safe in-memory datastore.Interface used where tests
// need real storage semantics (uniqueness, atomic increments) without a
// database file.
type memStore struct {
	mu      sync.Mutex
	byLabel map[string]*datastore.Species
}

func newMemStore() *memStore {
	return &memStore{byLabel: make(map[string]*datastore.Species)}
}

func (m *memStore) Open() error  { return nil }
func (m *memStore) Close() error { return nil }

func (m *memStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byLabel = make(map[string]*datastore.Species)
	return nil
}

func (m *memStore) Insert(ctx context.Context, species *datastore.Species) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byLabel[species.SoundLabel]; exists {
		return "", errors.Newf("duplicate sound label %q", species.SoundLabel).
			Category(errors.CategoryConflict).
			Build()
	}
	stored := *species
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	m.byLabel[stored.SoundLabel] = &stored
	return stored.ID, nil
}

func (m *memStore) GetByLabel(ctx context.Context, soundLabel string) (*datastore.Species, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	species, exists := m.byLabel[soundLabel]
	if !exists {
		return nil, errors.Newf("species not found").
			Category(errors.CategoryNotFound).
			Build()
	}
	cp := *species
	return &cp, nil
}

func (m *memStore) GetAll(ctx context.Context) ([]datastore.Species, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]datastore.Species, 0, len(m.byLabel))
	for _, species := range m.byLabel {
		all = append(all, *species)
	}
	return all, nil
}

func (m *memStore) IncrementRecognition(ctx context.Context, soundLabel string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	species, exists := m.byLabel[soundLabel]
	if !exists {
		return 0, nil
	}
	species.RecognitionCounter++
	return 1, nil
}

func (m *memStore) CountSpecies(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byLabel)), nil
}
