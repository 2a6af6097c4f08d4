package database

import (
	"github.com/pterm/pterm"
	"gorm.io/gorm"
)

// OptimizeDatabase applies additional optimizations after the initial
// migrations: verifying WAL mode and creating the composite indexes the
// event-writer/search/retention query patterns depend on.
func OptimizeDatabase(db *gorm.DB, logger *pterm.Logger) error {
	logger.Debug("Applying database optimizations...")

	var journalMode string
	if err := db.Raw("PRAGMA journal_mode").Scan(&journalMode).Error; err != nil {
		logger.Warn("Failed to check journal mode", logger.Args("error", err))
	} else if journalMode != "wal" {
		logger.Warn("Database not in WAL mode", logger.Args("mode", journalMode))
	} else {
		logger.Trace("Database journal mode verified", logger.Args("mode", journalMode))
	}

	indexes := []string{
		// App-scoped lookups (every query filters by app_id; spec.md §3
		// invariant: (app_id, id) covers all queries).
		`CREATE INDEX IF NOT EXISTS idx_events_app_id
		 ON events(app_id, id DESC)`,

		// Retention cutoff scan order (spec.md §4.5 step 1).
		`CREATE INDEX IF NOT EXISTS idx_events_ts
		 ON events(ts ASC)`,

		// Per-app time-range search filter.
		`CREATE INDEX IF NOT EXISTS idx_events_app_ts
		 ON events(app_id, ts DESC)`,

		// Tailer offset lookups are by (source_id, file_path), already the
		// table's primary key; no extra index needed.
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			logger.Warn("Failed to create index", logger.Args("error", err))
			return err
		}
	}

	logger.Debug("Database optimizations completed")
	return nil
}
