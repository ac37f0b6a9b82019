package ops

import (
	"database/sql"

	"github.com/hivemindhq/hivemind/internal/db"
)

// Stats returns entry counts and metadata histograms for the whole store.
func Stats(database *sql.DB) (*db.Stats, error) {
	return db.GetStats(database)
}
