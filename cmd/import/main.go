// Command import stores YAML holiday files as custom calendars in SQLite.
//
// Usage:
//
//	go run ./cmd/import -dir holidays -db data/bizcal.db
//	go run ./cmd/import -file holidays/acme.yaml -db data/bizcal.db
//
// This tool:
// 1. Parses and validates the holiday files
// 2. Creates/opens the SQLite database and runs migrations
// 3. Checks that every base calendar resolves
// 4. Imports all calendars and overrides in a single transaction
//
// Importing a calendar that is already stored fails the whole batch.
// Delete it through the API first to replace it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/bizcal/internal/calendar"
	"github.com/zapponejosh/bizcal/internal/database"
	"github.com/zapponejosh/bizcal/internal/holidayfile"
	"github.com/zapponejosh/bizcal/internal/logger"
)

func main() {
	// Parse command line flags
	filePath := flag.String("file", "", "Path to a single YAML holiday file")
	dirPath := flag.String("dir", "", "Directory of YAML or TOML holiday files")
	dbPath := flag.String("db", "data/bizcal.db", "Path to SQLite database")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	log := logger.New(os.Stdout, level, "text")

	if (*filePath == "") == (*dirPath == "") {
		log.Error("exactly one of -file or -dir is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*filePath, *dirPath, *dbPath, log); err != nil {
		log.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("import complete")
}

// ImportStats tracks import statistics.
type ImportStats struct {
	Calendars int
	Added     int
	Removed   int
}

func run(filePath, dirPath, dbPath string, log *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and validate holiday files
	// =========================================================================
	files, err := loadFiles(filePath, dirPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no holiday files found")
	}
	log.Info("parsed holiday files", slog.Int("files", len(files)))

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	log.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Resolve bases against built-in, stored and batch calendars
	// =========================================================================
	registry := calendar.NewRegistry(db)
	for _, f := range files {
		if registry.IsBuiltin(f.Name) {
			return fmt.Errorf("%s: cannot replace a built-in calendar", f.Name)
		}
	}
	if err := holidayfile.RegisterAll(ctx, registry, files); err != nil {
		return fmt.Errorf("resolve base calendars: %w", err)
	}

	// =========================================================================
	// Step 4: Import in a transaction
	// =========================================================================
	var stats ImportStats
	err = db.WithTx(ctx, func(tx *database.Tx) error {
		return importFiles(ctx, tx, files, log, &stats)
	})
	if err != nil {
		return fmt.Errorf("import data: %w", err)
	}

	count, err := db.CountCalendars(ctx)
	if err != nil {
		return fmt.Errorf("count calendars: %w", err)
	}

	elapsed := time.Since(startTime)
	log.Info("import verified",
		slog.Int("stored_calendars", count),
		slog.Duration("elapsed", elapsed),
	)

	// Print summary
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Calendars imported:  %d\n", stats.Calendars)
	fmt.Printf("Holidays added:      %d\n", stats.Added)
	fmt.Printf("Holidays removed:    %d\n", stats.Removed)
	fmt.Printf("Stored calendars:    %d\n", count)
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

func loadFiles(filePath, dirPath string) ([]*holidayfile.File, error) {
	if dirPath != "" {
		return holidayfile.LoadDir(dirPath)
	}
	f, err := holidayfile.Load(filePath)
	if err != nil {
		return nil, err
	}
	return []*holidayfile.File{f}, nil
}

func importFiles(ctx context.Context, tx *database.Tx, files []*holidayfile.File, log *slog.Logger, stats *ImportStats) error {
	for _, f := range files {
		cal, holidays := f.Record()

		if err := tx.CreateCalendar(ctx, &cal); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return fmt.Errorf("%s: calendar already stored", f.Name)
			}
			return fmt.Errorf("%s: %w", f.Name, err)
		}

		for i := range holidays {
			holidays[i].CalendarID = cal.ID
			if err := tx.AddHoliday(ctx, &holidays[i]); err != nil {
				return fmt.Errorf("%s: holiday %s: %w", f.Name, holidays[i].Date, err)
			}
			if holidays[i].Kind == database.HolidayKindRemove {
				stats.Removed++
			} else {
				stats.Added++
			}
		}

		stats.Calendars++
		log.Debug("imported calendar",
			slog.String("calendar", f.Name),
			slog.String("base", f.Base),
			slog.String("source", f.SourceFile),
			slog.Int("overrides", len(holidays)),
		)
	}
	return nil
}
