package ops

import (
	"database/sql"

	"github.com/hivemindhq/hivemind/internal/db"
	"github.com/hivemindhq/hivemind/internal/errors"
	"github.com/hivemindhq/hivemind/internal/honeypot"
	"github.com/hivemindhq/hivemind/internal/validate"
)

// SubmitInput contains the raw (untyped) submission payload.
type SubmitInput struct {
	Data map[string]any
}

// SubmitOutput contains the result of the Submit operation.
//
// Honeypot is never serialized: a flagged submitter receives a payload
// identical in shape to a real acceptance. Transports read it to log the
// event and skip side effects.
type SubmitOutput struct {
	ID       int64              `json:"id"`
	Status   string             `json:"status"`
	URL      string             `json:"url"`
	Warnings []validate.Warning `json:"warnings,omitempty"`
	Honeypot bool               `json:"-"`
}

// Submit validates a raw submission and stores it. Field contract
// violations reject with the full issue list. Submissions carrying
// prompt-injection payloads get a fabricated success and are not stored.
func Submit(database *sql.DB, input SubmitInput) (*SubmitOutput, error) {
	if input.Data == nil {
		return nil, errors.NewInvalidRequest("request body must be a JSON object")
	}

	res := validate.Validate(input.Data)
	if !res.OK() {
		return nil, errors.NewValidationFailed(res.IssueMaps(), res.WarningMaps())
	}

	// Injection check runs after validation so probe payloads cannot use
	// rejection detail to map the patterns.
	if honeypot.Detect(input.Data) {
		id := honeypot.FakeID()
		return &SubmitOutput{
			ID:       id,
			Status:   "created",
			URL:      EntryURL(id),
			Warnings: res.Warnings,
			Honeypot: true,
		}, nil
	}

	if err := db.InsertEntry(database, res.Entry); err != nil {
		return nil, err
	}

	return &SubmitOutput{
		ID:       res.Entry.ID,
		Status:   "created",
		URL:      EntryURL(res.Entry.ID),
		Warnings: res.Warnings,
	}, nil
}
