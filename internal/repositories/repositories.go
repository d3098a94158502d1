package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/tubetune/internal/shared"
)

// sequenced lists the tables that own a counter table named <table>_sequence.
var sequenced = map[string]bool{"sessions": true}

// NextSequence increments and returns the counter for table in a single statement.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("%w: table %q has no sequence", shared.ErrInvalidInput, table)
	}

	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}
	return sequence, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}
