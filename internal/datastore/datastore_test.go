// datastore_test.go: integration tests against real SQLite databases (not mocks)
// to exercise actual GORM behavior, including the unique index and the atomic
// recognition counter increment.
package datastore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/bird-catalog/internal/conf"
	"github.com/tphakala/bird-catalog/internal/errors"
)

// createTestSettings returns settings pointing at a temporary SQLite database.
func createTestSettings(t *testing.T) *conf.Settings {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	return settings
}

// createDatabase opens a fresh SQLite store and registers cleanup.
func createDatabase(t *testing.T, settings *conf.Settings) Interface {
	t.Helper()

	ds, err := New(settings)
	require.NoError(t, err)
	require.NoError(t, ds.Open())
	t.Cleanup(func() {
		assert.NoError(t, ds.Close())
	})

	// Serialize connections; SQLite allows a single writer at a time and the
	// concurrency tests hammer the same row from many goroutines.
	sqliteStore, ok := ds.(*SQLiteStore)
	require.True(t, ok)
	sqlDB, err := sqliteStore.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return ds
}

func testSpecies() *Species {
	return &Species{
		Name:           "Little Grebe",
		ScientificName: "Tachybaptus ruficollis",
		SoundLabel:     "maliponirek",
		Description:    "A small water bird with a short neck.",
		Habitat:        "Freshwater ponds, lakes and marshes.",
	}
}

func TestInsertAndGetByLabel(t *testing.T) {
	t.Parallel()

	ds := createDatabase(t, createTestSettings(t))
	ctx := context.Background()

	species := testSpecies()
	id, err := ds.Insert(ctx, species)
	require.NoError(t, err)
	assert.NotEmpty(t, id, "store must assign an ID on insert")

	got, err := ds.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Little Grebe", got.Name)
	assert.Equal(t, "Tachybaptus ruficollis", got.ScientificName)
	assert.Equal(t, int64(0), got.RecognitionCounter)
}

func TestGetByLabelMissing(t *testing.T) {
	t.Parallel()

	ds := createDatabase(t, createTestSettings(t))

	got, err := ds.GetByLabel(context.Background(), "nosuchlabel")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.IsNotFound(err))
}

func TestInsertDuplicateLabelConflicts(t *testing.T) {
	t.Parallel()

	ds := createDatabase(t, createTestSettings(t))
	ctx := context.Background()

	_, err := ds.Insert(ctx, testSpecies())
	require.NoError(t, err)

	// Same sound label, different ID: the unique index must reject it even
	// though no application-level existence check ran first.
	dup := testSpecies()
	dup.Name = "Impostor Grebe"
	_, err = ds.Insert(ctx, dup)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	count, err := ds.CountSpecies(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "failed insert must not change store contents")
}

func TestIncrementRecognition(t *testing.T) {
	t.Parallel()

	ds := createDatabase(t, createTestSettings(t))
	ctx := context.Background()

	_, err := ds.Insert(ctx, testSpecies())
	require.NoError(t, err)

	matched, err := ds.IncrementRecognition(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	got, err := ds.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.RecognitionCounter)
}

func TestIncrementRecognitionUnknownLabel(t *testing.T) {
	t.Parallel()

	ds := createDatabase(t, createTestSettings(t))
	ctx := context.Background()

	_, err := ds.Insert(ctx, testSpecies())
	require.NoError(t, err)

	matched, err := ds.IncrementRecognition(ctx, "nosuchlabel")
	require.NoError(t, err)
	assert.Equal(t, int64(0), matched)

	// The miss must not have touched any existing record's counter.
	got, err := ds.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.RecognitionCounter)
}

// TestIncrementRecognitionConcurrent verifies the one true concurrency
// requirement of the store: N concurrent recognition events for the same
// sound label increase the counter by exactly N, with no lost updates.
func TestIncrementRecognitionConcurrent(t *testing.T) {
	t.Parallel()

	ds := createDatabase(t, createTestSettings(t))
	ctx := context.Background()

	_, err := ds.Insert(ctx, testSpecies())
	require.NoError(t, err)

	const numEvents = 100

	var wg sync.WaitGroup
	errs := make(chan error, numEvents)
	wg.Add(numEvents)
	for range numEvents {
		go func() {
			defer wg.Done()
			matched, err := ds.IncrementRecognition(ctx, "maliponirek")
			if err != nil {
				errs <- err
				return
			}
			if matched != 1 {
				errs <- errors.Newf("expected 1 matched row, got %d", matched).Build()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent increment failed: %v", err)
	}

	got, err := ds.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, int64(numEvents), got.RecognitionCounter,
		"every concurrent recognition event must be counted exactly once")
}

func TestClear(t *testing.T) {
	t.Parallel()

	ds := createDatabase(t, createTestSettings(t))
	ctx := context.Background()

	_, err := ds.Insert(ctx, testSpecies())
	require.NoError(t, err)

	other := testSpecies()
	other.SoundLabel = "sivigaleb"
	other.Name = "Common Gull"
	_, err = ds.Insert(ctx, other)
	require.NoError(t, err)

	require.NoError(t, ds.Clear(ctx))

	count, err := ds.CountSpecies(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	all, err := ds.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetAll(t *testing.T) {
	t.Parallel()

	ds := createDatabase(t, createTestSettings(t))
	ctx := context.Background()

	labels := []string{"maliponirek", "sivigaleb", "recnigaleb"}
	for _, label := range labels {
		sp := testSpecies()
		sp.SoundLabel = label
		_, err := ds.Insert(ctx, sp)
		require.NoError(t, err)
	}

	all, err := ds.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(labels))

	seen := make(map[string]bool, len(all))
	for i := range all {
		seen[all[i].SoundLabel] = true
	}
	for _, label := range labels {
		assert.True(t, seen[label], "missing label %s", label)
	}
}

func TestNewRequiresEnabledOutput(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	_, err := New(settings)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
