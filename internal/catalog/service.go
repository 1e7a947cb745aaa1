// Package catalog implements the species catalog service: uniqueness and
// validation rules on top of the record store, recognition counting, and
// derivation of computed fields.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/tphakala/bird-catalog/internal/conf"
	"github.com/tphakala/bird-catalog/internal/datastore"
	"github.com/tphakala/bird-catalog/internal/errors"
	"github.com/tphakala/bird-catalog/internal/logging"
	"github.com/tphakala/bird-catalog/internal/observability/metrics"
)

// storeTimeout bounds every store round-trip. Expiry surfaces as a
// database-category error, never a silent retry.
const storeTimeout = 10 * time.Second

// Service enforces the catalog invariants. It holds an explicit store handle
// constructed at process start; there is no ambient global state.
type Service struct {
	ds       datastore.Interface
	settings *conf.Settings
	metrics  *metrics.CatalogMetrics
	logger   *slog.Logger
}

// New creates a catalog service on top of the given record store. The metrics
// collector may be nil.
func New(ds datastore.Interface, settings *conf.Settings, m *metrics.CatalogMetrics) *Service {
	return &Service{
		ds:       ds,
		settings: settings,
		metrics:  m,
		logger:   logging.ForService("catalog"),
	}
}

// CreateInput is the client-supplied shape for creating a species record.
// The recognition counter is intentionally absent: it always starts at zero
// and is only ever changed through the recognition path.
type CreateInput struct {
	Name           string `json:"name"`
	ScientificName string `json:"scientificName"`
	SoundLabel     string `json:"soundLabel"`
	Description    string `json:"description"`
	Habitat        string `json:"habitat"`
	ImageURL       string `json:"imageUrl,omitempty"`
	AudioURL       string `json:"audioUrl,omitempty"`
}

// ValidateCreateInput checks the required-field rules for a create request.
// It is a pure function: no store access, no side effects. The returned error
// carries the offending field name in its context.
func ValidateCreateInput(input *CreateInput) error {
	required := []struct {
		field string
		value string
	}{
		{"name", input.Name},
		{"scientificName", input.ScientificName},
		{"soundLabel", input.SoundLabel},
		{"description", input.Description},
		{"habitat", input.Habitat},
	}

	for _, r := range required {
		if r.value == "" {
			return errors.Newf("%s is required", r.field).
				Component("catalog").
				Category(errors.CategoryValidation).
				Context("field", r.field).
				Build()
		}
	}
	return nil
}

// ListAll returns every species record with the audio URL resolved. Full
// enumeration only; no pagination or filtering.
func (s *Service) ListAll(ctx context.Context) ([]datastore.Species, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	species, err := s.ds.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range species {
		s.resolveAudioURL(&species[i])
	}
	return species, nil
}

// GetByLabel returns the species record for the given sound label, with the
// audio URL resolved. Absence surfaces as a not-found error.
func (s *Service) GetByLabel(ctx context.Context, soundLabel string) (*datastore.Species, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	species, err := s.ds.GetByLabel(ctx, soundLabel)
	if err != nil {
		return nil, err
	}

	s.resolveAudioURL(species)
	return species, nil
}

// Create validates the input and persists a new species record, returning the
// store-assigned ID. The existence check is a fast path for a friendly error;
// the storage-level unique index on the sound label is the authoritative
// guard, so two concurrent creates with the same label cannot both succeed.
func (s *Service) Create(ctx context.Context, input *CreateInput) (string, error) {
	if err := ValidateCreateInput(input); err != nil {
		s.recordCreate("invalid")
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if _, err := s.ds.GetByLabel(ctx, input.SoundLabel); err == nil {
		s.recordCreate("conflict")
		return "", s.conflictError(input.SoundLabel, nil)
	} else if !errors.IsNotFound(err) {
		s.recordCreate("error")
		return "", err
	}

	species := &datastore.Species{
		Name:           input.Name,
		ScientificName: input.ScientificName,
		SoundLabel:     input.SoundLabel,
		Description:    input.Description,
		Habitat:        input.Habitat,
		ImageURL:       input.ImageURL,
		AudioURL:       input.AudioURL,
	}

	id, err := s.ds.Insert(ctx, species)
	if err != nil {
		if errors.IsConflict(err) {
			// Lost the race between the existence check and the insert;
			// the unique index caught it.
			s.recordCreate("conflict")
			return "", s.conflictError(input.SoundLabel, err)
		}
		s.recordCreate("error")
		return "", err
	}

	s.recordCreate("success")
	if s.logger != nil {
		s.logger.Info("species created", "sound_label", input.SoundLabel, "id", id)
	}
	return id, nil
}

// RecordRecognition tallies one successful recognition event for the species
// with the given sound label. The underlying increment is a single atomic
// update, so concurrent events are never lost.
func (s *Service) RecordRecognition(ctx context.Context, soundLabel string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	matched, err := s.ds.IncrementRecognition(ctx, soundLabel)
	if err != nil {
		s.recordRecognitionMetric("error")
		return err
	}
	if matched == 0 {
		s.recordRecognitionMetric("not_found")
		return errors.Newf("no species with sound label %q", soundLabel).
			Component("catalog").
			Category(errors.CategoryNotFound).
			Context("sound_label", soundLabel).
			Build()
	}

	s.recordRecognitionMetric("success")
	return nil
}

// Healthy reports whether the store is reachable.
func (s *Service) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	_, err := s.ds.CountSpecies(ctx)
	return err
}

// resolveAudioURL fills in the derived audio URL for records that carry none.
// An explicitly stored audio URL is preserved; derivation happens at read
// time only and is never persisted.
func (s *Service) resolveAudioURL(species *datastore.Species) {
	if species.AudioURL != "" {
		return
	}
	species.AudioURL = s.settings.Catalog.StaticBaseURL + "/audio/" + species.SoundLabel + ".mp3"
}

func (s *Service) conflictError(soundLabel string, cause error) error {
	builder := errors.Newf("species with sound label %q already exists", soundLabel).
		Component("catalog").
		Category(errors.CategoryConflict).
		Context("sound_label", soundLabel)
	if cause != nil {
		builder = builder.Context("cause", cause.Error())
	}
	return builder.Build()
}

func (s *Service) recordCreate(status string) {
	if s.metrics != nil {
		s.metrics.RecordCreate(status)
	}
}

func (s *Service) recordRecognitionMetric(status string) {
	if s.metrics != nil {
		s.metrics.RecordRecognition(status)
	}
}
