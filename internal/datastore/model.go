// model.go this code defines the data model for the catalog
package datastore

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Species represents a single bird species catalog record. SoundLabel is the
// natural key used for all client-facing lookups; the unique index enforces
// the one-record-per-label invariant at the storage layer.
type Species struct {
	ID                 string `gorm:"primaryKey;size:36" json:"id"`
	Name               string `gorm:"not null" json:"name"`
	ScientificName     string `gorm:"not null" json:"scientificName"`
	SoundLabel         string `gorm:"uniqueIndex:idx_species_sound_label;not null" json:"soundLabel"`
	Description        string `gorm:"type:text" json:"description"`
	Habitat            string `gorm:"type:text" json:"habitat"`
	RecognitionCounter int64  `gorm:"not null;default:0" json:"recognitionCounter"`
	ImageURL           string `json:"imageUrl,omitempty"`
	AudioURL           string `json:"audioUrl,omitempty"`
}

// BeforeCreate assigns a store-generated identifier. IDs are opaque to clients
// and never reused.
func (s *Species) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
