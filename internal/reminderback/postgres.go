package reminderback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists reminders in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			reminder_time TIMESTAMPTZ NOT NULL,
			message TEXT NOT NULL,
			notification_token TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_user_time ON reminders (user_id, reminder_time);`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_time ON reminders (reminder_time);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO reminders (id, user_id, reminder_time, message, notification_token, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID,
		rec.UserID,
		rec.ReminderTime,
		rec.Message,
		rec.NotificationToken,
		rec.CreatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("create reminder: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, reminder_time, message, notification_token, created_at
		 FROM reminders WHERE user_id=$1 ORDER BY reminder_time`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reminders WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DueBefore(ctx context.Context, cutoff time.Time) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, reminder_time, message, notification_token, created_at
		 FROM reminders WHERE reminder_time <= $1 ORDER BY reminder_time`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	out := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ReminderTime, &rec.Message, &rec.NotificationToken, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reminder row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminder rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
