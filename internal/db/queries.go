package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/zai-usage-tui/internal/logger"
	"github.com/j-veylop/zai-usage-tui/internal/models"
)

// InsertFetchAttempt records one attempt. A missing ID or start time is filled in.
func (db *DB) InsertFetchAttempt(ctx context.Context, a *models.FetchAttempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO fetch_attempts (id, started_at, trigger_name, outcome, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		a.StartedAt.UTC().Format(timeLayout),
		a.Trigger,
		string(a.Outcome),
		nullString(a.Error),
		a.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fetch attempt: %w", err)
	}
	return nil
}

// RecentFetchAttempts returns up to limit attempts, newest first.
func (db *DB) RecentFetchAttempts(ctx context.Context, limit int) ([]models.FetchAttempt, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, started_at, trigger_name, outcome, error, duration_ms
		FROM fetch_attempts
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch attempts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var attempts []models.FetchAttempt
	for rows.Next() {
		var (
			a       models.FetchAttempt
			started string
			outcome string
			errStr  sql.NullString
		)
		if err := rows.Scan(&a.ID, &started, &a.Trigger, &outcome, &errStr, &a.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan fetch attempt: %w", err)
		}
		a.StartedAt = parseTime(started)
		a.Outcome = models.FetchOutcome(outcome)
		a.Error = errStr.String
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// FetchStats summarizes attempts started within the last window.
func (db *DB) FetchStats(ctx context.Context, window time.Duration) (models.FetchStats, error) {
	var (
		stats       models.FetchStats
		lastSuccess sql.NullString
	)
	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = 'ok' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'credential' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'transient' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN outcome != 'skipped' THEN duration_ms END), 0),
			MAX(CASE WHEN outcome = 'ok' THEN started_at END)
		FROM fetch_attempts
		WHERE started_at >= datetime('now', ?)
	`, sqliteOffset(window)).Scan(
		&stats.Total,
		&stats.Succeeded,
		&stats.CredentialFails,
		&stats.TransientFails,
		&stats.AvgDurationMs,
		&lastSuccess,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to query fetch stats: %w", err)
	}
	if lastSuccess.Valid {
		stats.LastSuccess = parseTime(lastSuccess.String)
	}
	return stats, nil
}

// PruneFetchAttempts deletes attempts older than maxAge and reports how many were removed.
func (db *DB) PruneFetchAttempts(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM fetch_attempts WHERE started_at < datetime('now', ?)",
		sqliteOffset(maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to prune fetch attempts: %w", err)
	}
	return res.RowsAffected()
}

func sqliteOffset(d time.Duration) string {
	return fmt.Sprintf("-%d seconds", int64(d/time.Second))
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339, "2006-01-02T15:04:05Z"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Local()
		}
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
