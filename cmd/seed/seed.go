// Package seed implements the catalog seeding command.
package seed

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/bird-catalog/internal/catalog"
	"github.com/tphakala/bird-catalog/internal/conf"
	"github.com/tphakala/bird-catalog/internal/datastore"
	"github.com/tphakala/bird-catalog/internal/logging"
)

// Command creates the seed command which replaces the catalog contents with
// a known dataset.
func Command(settings *conf.Settings) *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reset the catalog to a seed dataset",
		Long:  "Clear all species records and insert the seed dataset. Uses the built-in dataset unless --file points to a JSON file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, settings, datasetPath)
		},
	}

	cmd.Flags().StringVarP(&datasetPath, "file", "f", "", "Path to a JSON file with species records to seed")

	return cmd
}

func runSeed(cmd *cobra.Command, settings *conf.Settings, datasetPath string) error {
	logger := logging.ForService("seed")

	records := catalog.DefaultDataset()
	if datasetPath != "" {
		loaded, err := loadDataset(datasetPath)
		if err != nil {
			return err
		}
		records = loaded
	}

	ds, err := datastore.New(settings)
	if err != nil {
		return fmt.Errorf("failed to create datastore: %w", err)
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Error("Failed to close datastore", "error", err)
		}
	}()

	seeder := catalog.NewSeeder(ds)
	if err := seeder.Seed(cmd.Context(), records); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	fmt.Printf("Seeded %d species records\n", len(records))
	return nil
}

// loadDataset reads species records from a JSON file. The file holds an
// array of species objects in the same shape the API returns.
func loadDataset(path string) ([]datastore.Species, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var records []datastore.Species
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset file %s contains no records", path)
	}

	return records, nil
}
