package repositories

import (
	"database/sql"

	"github.com/desertthunder/tubetune/internal/models"
)

// History records engine outcomes into the session and override tables.
type History struct {
	Sessions  *SessionRepository
	Overrides *OverrideRepository
}

// NewHistory creates both repositories over db.
func NewHistory(db *sql.DB) *History {
	return &History{
		Sessions:  NewSessionRepository(db),
		Overrides: NewOverrideRepository(db),
	}
}

// RecordSession stores a finished search.
func (h *History) RecordSession(rec models.SessionRecord) error {
	return h.Sessions.Create(&rec)
}

// RecordOverride stores an observed manual change.
func (h *History) RecordOverride(ev models.OverrideEvent) error {
	return h.Overrides.Create(&ev)
}
