package catalog

import (
	"context"
	"log/slog"

	"github.com/tphakala/bird-catalog/internal/datastore"
	"github.com/tphakala/bird-catalog/internal/errors"
	"github.com/tphakala/bird-catalog/internal/logging"
)

// Seeder bulk-replaces the store's contents with a fixed dataset. Seeding is
// destructive and intended as an offline maintenance operation; it must never
// run concurrently with serving traffic.
type Seeder struct {
	ds     datastore.Interface
	logger *slog.Logger
}

// NewSeeder creates a seeder writing directly to the given record store.
func NewSeeder(ds datastore.Interface) *Seeder {
	return &Seeder{
		ds:     ds,
		logger: logging.ForService("seeder"),
	}
}

// Seed clears the store and inserts the given records in sequence.
func (s *Seeder) Seed(ctx context.Context, records []datastore.Species) error {
	if err := s.ds.Clear(ctx); err != nil {
		return errors.New(err).
			Component("seeder").
			Category(errors.CategoryDatabase).
			Context("operation", "clear").
			Build()
	}

	for i := range records {
		if _, err := s.ds.Insert(ctx, &records[i]); err != nil {
			return errors.New(err).
				Component("seeder").
				Category(errors.CategoryDatabase).
				Context("operation", "insert").
				Context("sound_label", records[i].SoundLabel).
				Build()
		}
	}

	if s.logger != nil {
		s.logger.Info("store seeded", "records", len(records))
	}
	return nil
}

// DefaultDataset returns the dataset shipped with the binary, used for
// initial population or reset. Audio URLs are stored explicitly here; note the
// Black-headed Gull asset is a wav file, which the preserved-URL policy keeps
// intact instead of deriving an mp3 path for it.
func DefaultDataset() []datastore.Species {
	return []datastore.Species{
		{
			Name:           "Little Grebe",
			ScientificName: "Tachybaptus ruficollis",
			SoundLabel:     "maliponirek",
			Description:    "A small water bird with a short neck, often seen diving underwater for insects and small fish.",
			Habitat:        "Freshwater ponds, lakes, marshes, and slow-flowing rivers with vegetation.",
			ImageURL:       "https://upload.wikimedia.org/wikipedia/commons/2/2f/Tachybaptus_ruficollis_ruficollis.jpg",
			AudioURL:       "/static/audio/maliponirek.mp3",
		},
		{
			Name:           "Common Gull",
			ScientificName: "Larus canus",
			SoundLabel:     "sivigaleb",
			Description:    "A medium-sized gull with a pale grey back, white head and underparts, and yellow legs and bill.",
			Habitat:        "Coastal regions, estuaries, inland lakes, and fields, often near human settlements.",
			ImageURL:       "https://upload.wikimedia.org/wikipedia/commons/0/09/212_Common_Gull.jpg",
			AudioURL:       "/static/audio/sivigaleb.mp3",
		},
		{
			Name:           "Black-headed Gull",
			ScientificName: "Chroicocephalus ridibundus",
			SoundLabel:     "recnigaleb",
			Description:    "A small gull with a dark brown head (in summer), red bill and legs, and a distinctive loud call.",
			Habitat:        "Wetlands, rivers, lakes, marshes, and also urban areas with accessible water sources.",
			ImageURL:       "https://upload.wikimedia.org/wikipedia/commons/b/b4/Black-headed_Gull_%28Chroicocephalus_ridibundus%29.jpg",
			AudioURL:       "/static/audio/recnigaleb.wav",
		},
	}
}
