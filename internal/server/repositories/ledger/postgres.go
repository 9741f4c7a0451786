package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/attendkeeper/internal/dbx"
	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
)

// appendLockKey is the advisory lock taken by every append so that commit
// order matches seq order.
const appendLockKey int64 = 0x61747464

// DB is what PostgresLedger needs from *sql.DB.
type DB interface {
	dbx.DBTX
	dbx.TxBeginner
}

// PostgresLedger stores records in the insert-only attendance_log table.
type PostgresLedger struct {
	db DB
}

func NewPostgresLedger(db DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Append(ctx context.Context, entry models.AttendanceLogEntry) error {
	if err := validate(entry); err != nil {
		return err
	}

	details, err := json.Marshal(entry.RecognitionDetails)
	if err != nil {
		return fmt.Errorf("marshal recognition details: %w", err)
	}

	return dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, appendLockKey); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		query := `
			INSERT INTO attendance_log (id, logged_at, username, liveness_result, recognition_details)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, query,
			entry.ID, entry.Timestamp, entry.Username, entry.LivenessResult, details); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (l *PostgresLedger) List(ctx context.Context, username string, limit int) ([]models.AttendanceLogEntry, error) {
	query := `
		SELECT id, logged_at, username, liveness_result, recognition_details
		FROM (
			SELECT seq, id, logged_at, username, liveness_result, recognition_details
			FROM attendance_log
			WHERE ($1 = '' OR username = $1)
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC
	`

	var rowLimit sql.NullInt64
	if limit > 0 {
		rowLimit = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	rows, err := l.db.QueryContext(ctx, query, username, rowLimit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	entries := []models.AttendanceLogEntry{}
	for rows.Next() {
		var (
			e       models.AttendanceLogEntry
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Username, &e.LivenessResult, &details); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.RecognitionDetails); err != nil {
				return nil, fmt.Errorf("decode recognition details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}
