package suspension

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"medboard/internal/doctor/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
	ptx "medboard/pkg/platform/tx"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists the suspension ledger in PostgreSQL. Joins the
// ambient transaction when one is present so the count-then-act suspension
// step and its ledger append commit together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) conn(ctx context.Context) querier {
	if tx, ok := ptx.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, record *models.SuspensionRecord) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO suspensions (id, doctor_id, reason, detail, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(record.ID), uuid.UUID(record.DoctorID),
		record.Reason, record.Detail, record.Revoked, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert suspension: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, suspensionID id.SuspensionID) (*models.SuspensionRecord, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, doctor_id, reason, detail, revoked, created_at
		FROM suspensions WHERE id = $1`, uuid.UUID(suspensionID))

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *PostgresStore) ListByDoctor(ctx context.Context, doctorID id.DoctorID) ([]*models.SuspensionRecord, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT id, doctor_id, reason, detail, revoked, created_at
		FROM suspensions WHERE doctor_id = $1
		ORDER BY created_at`, uuid.UUID(doctorID))
	if err != nil {
		return nil, fmt.Errorf("list suspensions: %w", err)
	}
	defer rows.Close()

	var records []*models.SuspensionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// CountActive counts non-revoked records for the doctor. Runs inside the
// ambient transaction during a suspension so the count and the row-locked
// doctor read are consistent.
func (s *PostgresStore) CountActive(ctx context.Context, doctorID id.DoctorID) (int, error) {
	var count int
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM suspensions WHERE doctor_id = $1 AND NOT revoked`,
		uuid.UUID(doctorID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count suspensions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkRevoked(ctx context.Context, suspensionID id.SuspensionID) error {
	result, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE suspensions SET revoked = TRUE WHERE id = $1 AND NOT revoked`,
		uuid.UUID(suspensionID))
	if err != nil {
		return fmt.Errorf("revoke suspension: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Either missing or already revoked; disambiguate for the caller.
		var exists bool
		if err := s.conn(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM suspensions WHERE id = $1)`,
			uuid.UUID(suspensionID)).Scan(&exists); err != nil {
			return fmt.Errorf("check suspension: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) DeleteByDoctor(ctx context.Context, doctorID id.DoctorID) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		DELETE FROM suspensions WHERE doctor_id = $1`, uuid.UUID(doctorID))
	if err != nil {
		return fmt.Errorf("delete suspensions: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.SuspensionRecord, error) {
	var (
		record       models.SuspensionRecord
		suspensionID uuid.UUID
		doctorID     uuid.UUID
	)
	err := row.Scan(&suspensionID, &doctorID, &record.Reason, &record.Detail,
		&record.Revoked, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan suspension: %w", err)
	}
	record.ID = id.SuspensionID(suspensionID)
	record.DoctorID = id.DoctorID(doctorID)
	return &record, nil
}
