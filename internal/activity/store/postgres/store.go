package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medboard/internal/activity"
	id "medboard/pkg/domain"
	ptx "medboard/pkg/platform/tx"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store persists activity entries in Postgres. Every append also writes an
// outbox row in the same statement batch so the Kafka relay can deliver the
// entry without dual-write anomalies. When the context carries a transaction,
// both inserts join it.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := ptx.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, entry activity.Entry) error {
	q := s.conn(ctx)

	var adminID any
	if !entry.AdminID.IsNil() {
		adminID = uuid.UUID(entry.AdminID)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO admin_activities (id, admin_id, action, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(entry.ID), adminID, string(entry.Action), entry.Details,
		entry.IPAddress, entry.UserAgent, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode activity payload: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO activity_outbox (id, payload, created_at)
		VALUES ($1, $2, $3)`,
		uuid.New(), payload, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity outbox: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter activity.Filter) ([]activity.Entry, error) {
	query := `
		SELECT id, admin_id, action, details, ip_address, user_agent, created_at
		FROM admin_activities`
	args := []any{}
	if filter.Action != "" {
		query += ` WHERE action = $1`
		args = append(args, string(filter.Action))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var (
			entry   activity.Entry
			entryID uuid.UUID
			adminID sql.Null[uuid.UUID]
			action  string
		)
		if err := rows.Scan(&entryID, &adminID, &action, &entry.Details,
			&entry.IPAddress, &entry.UserAgent, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entry.ID = id.ActivityID(entryID)
		if adminID.Valid {
			entry.AdminID = id.AdminID(adminID.V)
		}
		entry.Action = activity.Action(action)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// OutboxRecord is one undelivered activity payload.
type OutboxRecord struct {
	ID        uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}

// UnpublishedBatch returns up to limit outbox rows awaiting delivery, oldest
// first so downstream consumers see entries in append order.
func (s *Store) UnpublishedBatch(ctx context.Context, limit int) ([]OutboxRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload, created_at
		FROM activity_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox batch: %w", err)
	}
	defer rows.Close()

	var batch []OutboxRecord
	for rows.Next() {
		var rec OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		batch = append(batch, rec)
	}
	return batch, rows.Err()
}

// MarkPublished stamps the given outbox rows as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE activity_outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`,
		publishedAt, pq.Array(uuidArray(ids)))
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func uuidArray(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, u := range ids {
		out[i] = u.String()
	}
	return out
}
