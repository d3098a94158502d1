package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/tubetune/internal/models"
	"github.com/desertthunder/tubetune/internal/shared"
)

// OverrideRepository stores manual quality changes.
//
// These rows are a log for reporting; the engine's override memory lives in process.
type OverrideRepository struct {
	db *sql.DB
}

// NewOverrideRepository creates a new OverrideRepository with the given database connection
func NewOverrideRepository(db *sql.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// Create inserts ev, generating its ID when missing.
func (r *OverrideRepository) Create(ev *models.OverrideEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if ev.ID == "" {
		ev.ID = shared.GenerateID()
	}

	_, err := r.db.Exec(`
		INSERT INTO override_events (id, video_id, quality, observed_at)
		VALUES (?, ?, ?, ?)
	`, ev.ID, ev.VideoID, ev.Quality, ev.ObservedAt)
	if err != nil {
		return fmt.Errorf("failed to insert override: %w", err)
	}

	return nil
}

// ListByVideo returns the overrides seen for videoID, oldest first.
func (r *OverrideRepository) ListByVideo(videoID string) ([]*models.OverrideEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, video_id, quality, observed_at
		FROM override_events
		WHERE video_id = ?
		ORDER BY observed_at ASC
	`, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var events []*models.OverrideEvent
	for rows.Next() {
		var ev models.OverrideEvent
		if err := rows.Scan(&ev.ID, &ev.VideoID, &ev.Quality, &ev.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}
