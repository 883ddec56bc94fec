// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/rhytm/internal/shared"
)

// querier is satisfied by both [sql.DB] and [sql.Tx] so repositories can be bound to a transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give queued rows a strict FIFO order independent of timestamp resolution.
func NextSequence(db querier, table string) (int64, error) {
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var sequence int64
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("%w: failed to increment %s sequence: %w", shared.ErrStorage, table, err)
	}
	return sequence, nil
}

func storageErr(action string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", shared.ErrStorage, action, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// encodeList stores a string slice as a JSON array, never null.
func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	var values []string
	if raw == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}
