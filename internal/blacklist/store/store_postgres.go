package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medboard/internal/blacklist/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
	ptx "medboard/pkg/platform/tx"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists blacklist entries in PostgreSQL. Fingerprints live
// in a GIN-indexed text[] column so membership checks stay cheap. Joins the
// ambient transaction so strike-limit deletions and their blacklist entry
// commit together.
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

const entryColumns = `id, reason, name, email, phone, licenses, fingerprints, is_active, blacklisted_at`

func (s *PostgresStore) Save(ctx context.Context, entry *models.Entry) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO blacklist (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(entry.ID), string(entry.Reason), entry.Name, entry.Email, entry.Phone,
		pq.Array(entry.Licenses), pq.Array(entry.Fingerprints),
		entry.IsActive, entry.BlacklistedAt,
	)
	if err != nil {
		return fmt.Errorf("insert blacklist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, entry *models.Entry) error {
	result, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE blacklist SET
			reason = $2, name = $3, email = $4, phone = $5,
			licenses = $6, fingerprints = $7, is_active = $8
		WHERE id = $1`,
		uuid.UUID(entry.ID), string(entry.Reason), entry.Name, entry.Email, entry.Phone,
		pq.Array(entry.Licenses), pq.Array(entry.Fingerprints), entry.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update blacklist entry: %w", err)
	}
	return checkAffected(result)
}

func (s *PostgresStore) FindByID(ctx context.Context, entryID id.BlacklistEntryID) (*models.Entry, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM blacklist WHERE id = $1`, uuid.UUID(entryID))

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM blacklist`
	var (
		clauses []string
		args    []any
	)
	if filter.Reason != "" {
		args = append(args, string(filter.Reason))
		clauses = append(clauses, fmt.Sprintf("reason = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY blacklisted_at DESC"

	return s.queryEntries(ctx, query, args...)
}

func (s *PostgresStore) Search(ctx context.Context, term string) ([]*models.Entry, error) {
	pattern := "%" + term + "%"
	return s.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM blacklist
		WHERE name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1
		   OR array_to_string(licenses, ' ') ILIKE $1
		ORDER BY blacklisted_at DESC`, pattern)
}

func (s *PostgresStore) Delete(ctx context.Context, entryID id.BlacklistEntryID) error {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM blacklist WHERE id = $1`, uuid.UUID(entryID))
	if err != nil {
		return fmt.Errorf("delete blacklist entry: %w", err)
	}
	return checkAffected(result)
}

// ExistsFingerprint reports whether any active entry covers one of the given
// fingerprints. Uses the GIN index via the overlap operator.
func (s *PostgresStore) ExistsFingerprint(ctx context.Context, fingerprints []string) (bool, error) {
	if len(fingerprints) == 0 {
		return false, nil
	}
	var exists bool
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM blacklist WHERE is_active AND fingerprints && $1
		)`, pq.Array(fingerprints)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check blacklist fingerprints: %w", err)
	}
	return exists, nil
}

// ActiveFingerprints returns every fingerprint covered by an active entry.
func (s *PostgresStore) ActiveFingerprints(ctx context.Context) ([]string, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT DISTINCT unnest(fingerprints) FROM blacklist WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("load active fingerprints: %w", err)
	}
	defer rows.Close()

	var fingerprints []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		fingerprints = append(fingerprints, fp)
	}
	return fingerprints, rows.Err()
}

func (s *PostgresStore) queryEntries(ctx context.Context, query string, args ...any) ([]*models.Entry, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query blacklist: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.Entry, error) {
	var (
		entry   models.Entry
		entryID uuid.UUID
		reason  string
	)
	err := row.Scan(&entryID, &reason, &entry.Name, &entry.Email, &entry.Phone,
		pq.Array(&entry.Licenses), pq.Array(&entry.Fingerprints),
		&entry.IsActive, &entry.BlacklistedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan blacklist entry: %w", err)
	}
	entry.ID = id.BlacklistEntryID(entryID)
	entry.Reason = models.Reason(reason)
	return &entry, nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
