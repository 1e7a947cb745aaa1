// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tphakala/bird-catalog/internal/conf"
	"github.com/tphakala/bird-catalog/internal/errors"
	"github.com/tphakala/bird-catalog/internal/observability/metrics"
)

// Interface abstracts the underlying database implementation and defines the
// interface for species record operations. Callers must treat every call as a
// potentially blocking network operation and bound it with the context.
type Interface interface {
	Open() error
	Close() error
	Clear(ctx context.Context) error
	Insert(ctx context.Context, species *Species) (string, error)
	GetByLabel(ctx context.Context, soundLabel string) (*Species, error)
	GetAll(ctx context.Context) ([]Species, error)
	IncrementRecognition(ctx context.Context, soundLabel string) (int64, error)
	CountSpecies(ctx context.Context) (int64, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance

	metricsMu sync.RWMutex
	metrics   *metrics.DatastoreMetrics
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) (Interface, error) {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}, nil
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}, nil
	default:
		return nil, errors.Newf("no database is enabled in settings").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// SetMetrics attaches a metrics collector. Safe for concurrent use.
func (ds *DataStore) SetMetrics(m *metrics.DatastoreMetrics) {
	ds.metricsMu.Lock()
	defer ds.metricsMu.Unlock()
	ds.metrics = m
}

// recordOperation reports the outcome of a store operation to the metrics
// collector, if one is attached.
func (ds *DataStore) recordOperation(operation string, start time.Time, err error) {
	ds.metricsMu.RLock()
	m := ds.metrics
	ds.metricsMu.RUnlock()
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	m.RecordOperation(operation, status, time.Since(start).Seconds())
}

// Clear removes all species records. Irreversible; reserved for seeding.
func (ds *DataStore) Clear(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { ds.recordOperation("clear", start, err) }()

	result := ds.DB.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&Species{})
	if result.Error != nil {
		err = dbError(result.Error, "clear")
		return err
	}
	return nil
}

// Insert persists a new species record and returns the assigned ID. A unique
// index violation on sound_label is reported as a conflict so two concurrent
// creates for the same label cannot both succeed.
func (ds *DataStore) Insert(ctx context.Context, species *Species) (id string, err error) {
	start := time.Now()
	defer func() { ds.recordOperation("insert", start, err) }()

	if result := ds.DB.WithContext(ctx).Create(species); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			err = conflictError(result.Error, "insert", species.SoundLabel)
			return "", err
		}
		err = dbError(result.Error, "insert", "sound_label", species.SoundLabel)
		return "", err
	}
	return species.ID, nil
}

// GetByLabel retrieves a species record by its sound label. A missing record
// is reported as a not-found error, distinguishable from storage failures.
func (ds *DataStore) GetByLabel(ctx context.Context, soundLabel string) (sp *Species, err error) {
	start := time.Now()
	defer func() { ds.recordOperation("get_by_label", start, err) }()

	var species Species
	result := ds.DB.WithContext(ctx).Where("sound_label = ?", soundLabel).First(&species)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			err = notFoundError("species", soundLabel)
			return nil, err
		}
		err = dbError(result.Error, "get_by_label", "sound_label", soundLabel)
		return nil, err
	}
	return &species, nil
}

// GetAll retrieves all species records. Order is implementation-defined.
func (ds *DataStore) GetAll(ctx context.Context) (species []Species, err error) {
	start := time.Now()
	defer func() { ds.recordOperation("get_all", start, err) }()

	if result := ds.DB.WithContext(ctx).Find(&species); result.Error != nil {
		err = dbError(result.Error, "get_all")
		return nil, err
	}
	return species, nil
}

// IncrementRecognition atomically increments the recognition counter for the
// record with the given sound label and returns the number of matched rows
// (0 or 1). The increment is a single conditional UPDATE so concurrent
// recognition events for the same species never lose updates.
func (ds *DataStore) IncrementRecognition(ctx context.Context, soundLabel string) (matched int64, err error) {
	start := time.Now()
	defer func() { ds.recordOperation("increment_recognition", start, err) }()

	result := ds.DB.WithContext(ctx).
		Model(&Species{}).
		Where("sound_label = ?", soundLabel).
		UpdateColumn("recognition_counter", gorm.Expr("recognition_counter + ?", 1))
	if result.Error != nil {
		err = dbError(result.Error, "increment_recognition", "sound_label", soundLabel)
		return 0, err
	}
	return result.RowsAffected, nil
}

// CountSpecies returns the number of species records in the store.
func (ds *DataStore) CountSpecies(ctx context.Context) (count int64, err error) {
	start := time.Now()
	defer func() { ds.recordOperation("count_species", start, err) }()

	if result := ds.DB.WithContext(ctx).Model(&Species{}).Count(&count); result.Error != nil {
		err = dbError(result.Error, "count_species")
		return 0, err
	}

	ds.metricsMu.RLock()
	m := ds.metrics
	ds.metricsMu.RUnlock()
	if m != nil {
		m.SetSpeciesCount(int(count))
	}
	return count, nil
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Species{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}

	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}
