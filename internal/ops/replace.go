package ops

import (
	"database/sql"

	"github.com/hivemindhq/hivemind/internal/db"
	"github.com/hivemindhq/hivemind/internal/errors"
	"github.com/hivemindhq/hivemind/internal/validate"
)

// ReplaceInput contains parameters for the administrative Replace
// operation: a full replacement payload for an existing entry.
type ReplaceInput struct {
	ID   int64
	Data map[string]any
}

// ReplaceOutput contains the result of the Replace operation.
type ReplaceOutput struct {
	ID       int64              `json:"id"`
	Status   string             `json:"status"`
	URL      string             `json:"url"`
	Warnings []validate.Warning `json:"warnings,omitempty"`
}

// Replace rewrites every mutable field of an existing entry. The payload
// passes the same field contracts as a fresh submission; id and created_at
// are immutable. Entries are never partially merged.
func Replace(database *sql.DB, input ReplaceInput) (*ReplaceOutput, error) {
	if input.ID < 1 {
		return nil, errors.NewInvalidRequest("invalid entry ID")
	}
	if input.Data == nil {
		return nil, errors.NewInvalidRequest("request body must be a JSON object")
	}

	res := validate.Validate(input.Data)
	if !res.OK() {
		return nil, errors.NewValidationFailed(res.IssueMaps(), res.WarningMaps())
	}

	// Preserve immutable and server-managed fields from the stored row.
	existing, err := db.GetEntry(database, input.ID)
	if err != nil {
		return nil, err
	}
	res.Entry.ID = existing.ID
	res.Entry.CreatedAt = existing.CreatedAt
	res.Entry.Upvotes = existing.Upvotes

	if err := db.ReplaceEntry(database, res.Entry); err != nil {
		return nil, err
	}

	return &ReplaceOutput{
		ID:       input.ID,
		Status:   "replaced",
		URL:      EntryURL(input.ID),
		Warnings: res.Warnings,
	}, nil
}

// Delete removes an entry. Administrative only.
func Delete(database *sql.DB, id int64) error {
	if id < 1 {
		return errors.NewInvalidRequest("invalid entry ID")
	}
	return db.DeleteEntry(database, id)
}
