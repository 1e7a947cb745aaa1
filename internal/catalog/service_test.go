package catalog

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/bird-catalog/internal/conf"
	"github.com/tphakala/bird-catalog/internal/datastore"
	"github.com/tphakala/bird-catalog/internal/errors"
)

func testSettings() *conf.Settings {
	settings := &conf.Settings{}
	settings.Catalog.StaticBaseURL = "http://localhost:8000/static"
	return settings
}

func validInput() *CreateInput {
	return &CreateInput{
		Name:           "Little Grebe",
		ScientificName: "Tachybaptus ruficollis",
		SoundLabel:     "maliponirek",
		Description:    "A small water bird with a short neck.",
		Habitat:        "Freshwater ponds, lakes and marshes.",
	}
}

func TestValidateCreateInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mutate       func(*CreateInput)
		wantErr      bool
		missingField string
	}{
		{"valid", func(i *CreateInput) {}, false, ""},
		{"missing name", func(i *CreateInput) { i.Name = "" }, true, "name"},
		{"missing scientific name", func(i *CreateInput) { i.ScientificName = "" }, true, "scientificName"},
		{"missing sound label", func(i *CreateInput) { i.SoundLabel = "" }, true, "soundLabel"},
		{"missing description", func(i *CreateInput) { i.Description = "" }, true, "description"},
		{"missing habitat", func(i *CreateInput) { i.Habitat = "" }, true, "habitat"},
		{"optional urls may be empty", func(i *CreateInput) { i.ImageURL = ""; i.AudioURL = "" }, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			input := validInput()
			tt.mutate(input)
			err := ValidateCreateInput(input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))

			var ee *errors.EnhancedError
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, tt.missingField, ee.GetContext()["field"])
		})
	}
}

func TestCreateAndGetByLabel(t *testing.T) {
	t.Parallel()

	svc := New(newMemStore(), testSettings(), nil)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := svc.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Little Grebe", got.Name)
	assert.Equal(t, "Tachybaptus ruficollis", got.ScientificName)
	assert.Equal(t, int64(0), got.RecognitionCounter)
	assert.True(t, strings.HasSuffix(got.AudioURL, "/maliponirek.mp3"))
}

func TestCreateDuplicateLabel(t *testing.T) {
	t.Parallel()

	ms := newMemStore()
	svc := New(ms, testSettings(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput())
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	count, err := ms.CountSpecies(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "conflicting create must not change the store")
}

func TestCreateInvalidInputSkipsStore(t *testing.T) {
	t.Parallel()

	mockDS := new(MockDataStore)
	svc := New(mockDS, testSettings(), nil)

	input := validInput()
	input.Name = ""
	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	mockDS.AssertNotCalled(t, "GetByLabel")
	mockDS.AssertNotCalled(t, "Insert")
}

// TestCreateLosesRaceToUniqueIndex exercises the window between the
// existence check and the insert: if another create for the same label lands
// in between, the storage-level conflict must still surface as Conflict.
func TestCreateLosesRaceToUniqueIndex(t *testing.T) {
	t.Parallel()

	mockDS := new(MockDataStore)
	notFound := errors.Newf("species not found").Category(errors.CategoryNotFound).Build()
	storeConflict := errors.Newf("UNIQUE constraint failed").Category(errors.CategoryConflict).Build()

	mockDS.On("GetByLabel", mock.Anything, "maliponirek").Return(nil, notFound)
	mockDS.On("Insert", mock.Anything, mock.Anything).Return("", storeConflict)

	svc := New(mockDS, testSettings(), nil)
	_, err := svc.Create(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	mockDS.AssertExpectations(t)
}

func TestCreateStoreFailure(t *testing.T) {
	t.Parallel()

	mockDS := new(MockDataStore)
	storeErr := errors.Newf("connection refused").Category(errors.CategoryDatabase).Build()
	mockDS.On("GetByLabel", mock.Anything, "maliponirek").Return(nil, storeErr)

	svc := New(mockDS, testSettings(), nil)
	_, err := svc.Create(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
	mockDS.AssertNotCalled(t, "Insert")
}

func TestGetByLabelNotFound(t *testing.T) {
	t.Parallel()

	svc := New(newMemStore(), testSettings(), nil)

	_, err := svc.GetByLabel(context.Background(), "nosuchlabel")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestAudioURLDerivation(t *testing.T) {
	t.Parallel()

	ms := newMemStore()
	svc := New(ms, testSettings(), nil)
	ctx := context.Background()

	// No stored audio URL: derived from the sound label with an mp3 extension.
	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	// Explicitly stored audio URL: preserved as-is, even for non-mp3 assets.
	withAudio := validInput()
	withAudio.SoundLabel = "recnigaleb"
	withAudio.AudioURL = "/static/audio/recnigaleb.wav"
	_, err = svc.Create(ctx, withAudio)
	require.NoError(t, err)

	derived, err := svc.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/static/audio/maliponirek.mp3", derived.AudioURL)

	stored, err := svc.GetByLabel(ctx, "recnigaleb")
	require.NoError(t, err)
	assert.Equal(t, "/static/audio/recnigaleb.wav", stored.AudioURL)

	// ListAll must resolve identically to GetByLabel.
	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	byLabel := make(map[string]string, len(all))
	for i := range all {
		byLabel[all[i].SoundLabel] = all[i].AudioURL
	}
	assert.Equal(t, derived.AudioURL, byLabel["maliponirek"])
	assert.Equal(t, stored.AudioURL, byLabel["recnigaleb"])

	// Derivation is read-time only; the stored record still has no audio URL.
	raw, err := ms.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Empty(t, raw.AudioURL)
}

func TestRecordRecognition(t *testing.T) {
	t.Parallel()

	svc := New(newMemStore(), testSettings(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, svc.RecordRecognition(ctx, "maliponirek"))
	}

	got, err := svc.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.RecognitionCounter)
}

func TestRecordRecognitionUnknownLabel(t *testing.T) {
	t.Parallel()

	ms := newMemStore()
	svc := New(ms, testSettings(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	err = svc.RecordRecognition(ctx, "nosuchlabel")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	got, err := svc.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.RecognitionCounter, "a miss must not touch any counter")
}

// TestRecordRecognitionConcurrent verifies the service-level counting
// contract: N concurrent successful recognitions yield a counter of exactly N.
func TestRecordRecognitionConcurrent(t *testing.T) {
	t.Parallel()

	svc := New(newMemStore(), testSettings(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	const numEvents = 100

	var wg sync.WaitGroup
	errs := make(chan error, numEvents)
	wg.Add(numEvents)
	for range numEvents {
		go func() {
			defer wg.Done()
			if err := svc.RecordRecognition(ctx, "maliponirek"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent recognition failed: %v", err)
	}

	got, err := svc.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, int64(numEvents), got.RecognitionCounter)
}

// TestLittleGrebeScenario walks the reference end-to-end flow: create, read
// back, three sequential recognitions, then a duplicate create attempt.
func TestLittleGrebeScenario(t *testing.T) {
	t.Parallel()

	svc := New(newMemStore(), testSettings(), nil)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := svc.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.RecognitionCounter)
	assert.True(t, strings.HasSuffix(got.AudioURL, "/maliponirek.mp3"))

	for range 3 {
		require.NoError(t, svc.RecordRecognition(ctx, "maliponirek"))
	}

	_, err = svc.Create(ctx, validInput())
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	got, err = svc.GetByLabel(ctx, "maliponirek")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.RecognitionCounter, "conflicting create must not change the counter")
}
