package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/tubetune/internal/models"
	"github.com/desertthunder/tubetune/internal/shared"
)

const sessionColumns = `id, sequence, video_id, outcome, quality, desired, attempts, started_at, finished_at`

// SessionRepository stores finished searches.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts rec, assigning its sequence and, when missing, its ID.
func (r *SessionRepository) Create(rec *models.SessionRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}
	rec.Sequence = sequence

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		rec.ID,
		rec.Sequence,
		rec.VideoID,
		string(rec.Outcome),
		rec.Quality,
		rec.Desired,
		rec.Attempts,
		rec.StartedAt,
		rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(id string) (*models.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	return scanSession(r.db.QueryRow(query, id))
}

// List returns the most recent sessions first, optionally only those for videoID.
//
// A non-positive limit returns every row.
func (r *SessionRepository) List(videoID string, limit int) ([]*models.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	args := []any{}

	if videoID != "" {
		query += " WHERE video_id = ?"
		args = append(args, videoID)
	}

	query += " ORDER BY sequence DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// CountByOutcome tallies stored sessions per outcome, optionally only those for videoID.
func (r *SessionRepository) CountByOutcome(videoID string) (map[models.Outcome]int, error) {
	query := `SELECT outcome, COUNT(*) FROM sessions`
	args := []any{}
	if videoID != "" {
		query += " WHERE video_id = ?"
		args = append(args, videoID)
	}
	query += " GROUP BY outcome"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Outcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.Outcome(outcome)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

func scanSession(row scanner) (*models.SessionRecord, error) {
	var (
		rec     models.SessionRecord
		outcome string
	)

	err := row.Scan(&rec.ID, &rec.Sequence, &rec.VideoID, &outcome, &rec.Quality, &rec.Desired, &rec.Attempts, &rec.StartedAt, &rec.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	rec.Outcome = models.Outcome(outcome)
	return &rec, nil
}
