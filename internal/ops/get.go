package ops

import (
	"database/sql"

	"github.com/hivemindhq/hivemind/internal/db"
	"github.com/hivemindhq/hivemind/internal/entry"
	"github.com/hivemindhq/hivemind/internal/errors"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID     int64
	Fields []string // optional projection; id and title always survive
}

// Get retrieves one entry as a stripped map, optionally projected down to
// the requested fields.
func Get(database *sql.DB, input GetInput) (map[string]any, error) {
	if input.ID < 1 {
		return nil, errors.NewInvalidRequest("invalid entry ID")
	}

	e, err := db.GetEntry(database, input.ID)
	if err != nil {
		return nil, err
	}

	m := entry.ToMap(e)
	if len(input.Fields) > 0 {
		m = entry.PickFields(m, input.Fields)
	}
	return m, nil
}
