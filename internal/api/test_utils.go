// internal/api/test_utils.go
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/bird-catalog/internal/catalog"
	"github.com/tphakala/bird-catalog/internal/conf"
	"github.com/tphakala/bird-catalog/internal/datastore"
	"github.com/tphakala/bird-catalog/internal/errors"
)

// MockDataStore is a mock implementation of the datastore.Interface for testing
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

// fakeStore is a mutex guarded in-memory datastore.Interface for handler
// tests that exercise full request round trips.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*datastore.Species
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*datastore.Species)}
}

func (f *fakeStore) Open() error  { return nil }
func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = make(map[string]*datastore.Species)
	return nil
}

func (f *fakeStore) Insert(ctx context.Context, species *datastore.Species) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.records[species.SoundLabel]; exists {
		return "", errors.Newf("duplicate sound label %q", species.SoundLabel).
			Component("datastore").
			Category(errors.CategoryConflict).
			Build()
	}
	if species.ID == "" {
		species.ID = uuid.NewString()
	}
	stored := *species
	f.records[species.SoundLabel] = &stored
	return species.ID, nil
}

func (f *fakeStore) GetByLabel(ctx context.Context, soundLabel string) (*datastore.Species, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	species, exists := f.records[soundLabel]
	if !exists {
		return nil, errors.Newf("species %q not found", soundLabel).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Build()
	}
	copied := *species
	return &copied, nil
}

func (f *fakeStore) GetAll(ctx context.Context) ([]datastore.Species, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]datastore.Species, 0, len(f.records))
	for _, species := range f.records {
		all = append(all, *species)
	}
	return all, nil
}

func (f *fakeStore) IncrementRecognition(ctx context.Context, soundLabel string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	species, exists := f.records[soundLabel]
	if !exists {
		return 0, nil
	}
	species.RecognitionCounter++
	return 1, nil
}

func (f *fakeStore) CountSpecies(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records)), nil
}

// testSettings returns settings suitable for handler tests.
func testSettings() *conf.Settings {
	settings := &conf.Settings{}
	settings.Main.Name = "bird-catalog-test"
	settings.Server.Host = "localhost"
	settings.Server.Port = "8000"
	settings.Server.CORS.Origins = []string{"*"}
	settings.Catalog.StaticBaseURL = "http://localhost:8000/static"
	settings.Version = "test"
	return settings
}

// setupTestController wires an echo instance, the given store and a
// controller with logging discarded.
func setupTestController(t *testing.T, ds datastore.Interface) (*echo.Echo, *Controller) {
	t.Helper()

	e := echo.New()
	svc := catalog.New(ds, testSettings(), nil)

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	controller, err := New(e, svc, testSettings(), nil, WithLogger(discard))
	require.NoError(t, err)
	t.Cleanup(controller.Shutdown)

	return e, controller
}

// doRequest performs a request against the echo instance and returns the
// recorder holding the response.
func doRequest(e *echo.Echo, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
