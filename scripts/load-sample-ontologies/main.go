// load-sample-ontologies seeds the catalog from a JSON file of sample
// ontologies. Existing (name, version) rows are updated in place, so the
// loader is safe to rerun.
//
// Usage: go run ./scripts/load-sample-ontologies [-file sample_ontologies.json]
//
// Database connection: uses the standard PG* environment variables.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/ekaya-inc/ekaya-engine/pkg/config"
	"github.com/ekaya-inc/ekaya-engine/pkg/database"
	"github.com/ekaya-inc/ekaya-engine/pkg/models"
	"github.com/ekaya-inc/ekaya-engine/pkg/repositories"
)

type sampleOntology struct {
	Name         string         `json:"name"`
	Version      string         `json:"version"`
	OntologyJSON map[string]any `json:"ontology_json"`
	Category     string         `json:"category"`
	Description  string         `json:"description"`
	Tags         []string       `json:"tags"`
	Priority     int            `json:"priority"`
}

func main() {
	file := flag.String("file", "scripts/load-sample-ontologies/sample_ontologies.json", "Path to the sample ontologies JSON file")
	flag.Parse()

	if err := run(*file); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	var samples map[string]sampleOntology
	if err := json.Unmarshal(data, &samples); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	keys := make([]string, 0, len(samples))
	for key := range samples {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Printf("Found %d sample ontologies to load\n", len(samples))

	ctx := context.Background()
	dbCfg := databaseConfigFromEnv()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            dbCfg.ConnectionString(),
		MaxConnections: 2,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := repositories.NewOntologyRepository(db)

	loaded := 0
	for _, key := range keys {
		sample := samples[key]
		ont, err := repo.Store(ctx, &models.StoreOntologyRequest{
			Name:        sample.Name,
			Document:    sample.OntologyJSON,
			Category:    sample.Category,
			Description: sample.Description,
			Tags:        sample.Tags,
			Priority:    sample.Priority,
			Version:     sample.Version,
			CreatedBy:   "system",
		})
		if err != nil {
			fmt.Printf("  failed: %s: %v\n", sample.Name, err)
			continue
		}
		fmt.Printf("  loaded: %s v%s (ID: %d)\n", ont.Name, ont.Version, ont.ID)
		loaded++
	}

	fmt.Printf("Summary: %d/%d ontologies loaded\n", loaded, len(samples))
	if loaded != len(samples) {
		return fmt.Errorf("%d ontologies failed to load", len(samples)-loaded)
	}
	return nil
}

// databaseConfigFromEnv mirrors the server's PG* environment handling
// without requiring a config.yaml next to the script.
func databaseConfigFromEnv() *config.DatabaseConfig {
	cfg := &config.DatabaseConfig{
		Host:     envOr("PGHOST", "localhost"),
		Port:     5432,
		User:     envOr("PGUSER", "kivor"),
		Password: os.Getenv("PGPASSWORD"),
		Database: envOr("PGDATABASE", "kivor_ticketing"),
		SSLMode:  envOr("PGSSLMODE", "disable"),
	}
	if port := os.Getenv("PGPORT"); port != "" {
		_, _ = fmt.Sscanf(port, "%d", &cfg.Port)
	}
	return cfg
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
