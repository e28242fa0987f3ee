// Command catalog-import bulk-loads song catalog entries from a JSON file
// into Postgres. Existing entries win; duplicates are counted and skipped.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kim-jongsoung/tikfind/internal/database"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/kim-jongsoung/tikfind/internal/match"
)

type importEntry struct {
	ExternalMediaID string   `json:"externalMediaId"`
	Title           string   `json:"title"`
	Artist          string   `json:"artist"`
	ThumbnailURL    string   `json:"thumbnailUrl"`
	Keywords        []string `json:"keywords"`
	Popularity      int      `json:"popularity"`
}

func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "Postgres URL (or set DATABASE_URL env)")
		file        = flag.String("file", "", "JSON file with an array of catalog entries")
		dryRun      = flag.Bool("dry-run", false, "Dry run mode (don't write to Postgres)")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Postgres URL required (--database or DATABASE_URL env)")
	}
	if *file == "" {
		log.Fatal("Input file required (--file)")
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	entries, err := readEntries(*file)
	if err != nil {
		log.Fatalf("Failed to read input file: %v", err)
	}
	slog.Info("Input parsed", "file", *file, "entries", len(entries))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, *databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := importAll(ctx, database.NewCatalogRepo(pool), entries, *dryRun); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	slog.Info("Import complete")
}

func readEntries(path string) ([]importEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []importEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return entries, nil
}

func importAll(ctx context.Context, repo *database.CatalogRepo, entries []importEntry, dryRun bool) error {
	start := time.Now()
	var imported, skipped int

	slog.Info("Starting import", "dry_run", dryRun)

	for i, e := range entries {
		e.Title = strings.TrimSpace(e.Title)
		e.Artist = strings.TrimSpace(e.Artist)
		if e.ExternalMediaID == "" || e.Title == "" || e.Artist == "" {
			slog.Warn("Skipping incomplete entry", "index", i, "title", e.Title, "artist", e.Artist)
			skipped++
			continue
		}

		keywords := e.Keywords
		if len(keywords) == 0 {
			keywords = match.Tokenize(e.Title + " " + e.Artist)
		}

		if !dryRun {
			err := repo.Upsert(ctx, domain.CatalogEntry{
				ExternalMediaID: e.ExternalMediaID,
				Title:           e.Title,
				Artist:          e.Artist,
				ThumbnailURL:    e.ThumbnailURL,
				Keywords:        keywords,
				Provenance:      domain.ProvenanceDataset,
				Popularity:      e.Popularity,
				IsActive:        true,
			})
			if err != nil {
				return fmt.Errorf("failed to upsert %q: %w", e.ExternalMediaID, err)
			}
		}

		slog.Debug("Imported entry", "media_id", e.ExternalMediaID, "title", e.Title)
		imported++
	}

	slog.Info("Import summary",
		"imported", imported,
		"skipped", skipped,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
