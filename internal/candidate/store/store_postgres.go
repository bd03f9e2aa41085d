package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medboard/internal/candidate/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
	ptx "medboard/pkg/platform/tx"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists candidates in PostgreSQL.
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

const candidateColumns = `id, name, email, phone, specializations, licenses, degrees, residencies,
	fellowships, board_certifications, hospital_affiliations, memberships,
	status, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, candidate *models.Candidate) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO candidates (`+candidateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(candidate.ID), candidate.Name, candidate.Email, candidate.Phone,
		pq.Array(candidate.Specializations), pq.Array(candidate.Licenses),
		pq.Array(candidate.Degrees), pq.Array(candidate.Residencies),
		pq.Array(candidate.Fellowships), pq.Array(candidate.BoardCertifications),
		pq.Array(candidate.HospitalAffiliations), pq.Array(candidate.Memberships),
		string(candidate.Status), candidate.CreatedAt, candidate.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, candidate *models.Candidate) error {
	result, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE candidates SET
			name = $2, email = $3, phone = $4,
			specializations = $5, licenses = $6, degrees = $7, residencies = $8,
			fellowships = $9, board_certifications = $10, hospital_affiliations = $11, memberships = $12,
			status = $13, updated_at = $14
		WHERE id = $1`,
		uuid.UUID(candidate.ID), candidate.Name, candidate.Email, candidate.Phone,
		pq.Array(candidate.Specializations), pq.Array(candidate.Licenses),
		pq.Array(candidate.Degrees), pq.Array(candidate.Residencies),
		pq.Array(candidate.Fellowships), pq.Array(candidate.BoardCertifications),
		pq.Array(candidate.HospitalAffiliations), pq.Array(candidate.Memberships),
		string(candidate.Status), candidate.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, uuid.UUID(candidateID))

	candidate, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return candidate, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*models.Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}
	return candidates, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, candidateID id.CandidateID) error {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, uuid.UUID(candidateID))
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// CountRejectedMatching counts retained rejected candidates sharing the
// email or any license with the given contact.
func (s *PostgresStore) CountRejectedMatching(ctx context.Context, email string, licenses []string) (int, error) {
	var count int
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM candidates
		WHERE status = 'rejected' AND (LOWER(email) = LOWER($1) OR licenses && $2)`,
		email, pq.Array(licenses)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count rejected candidates: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (*models.Candidate, error) {
	var (
		candidate   models.Candidate
		candidateID uuid.UUID
		status      string
	)
	err := row.Scan(
		&candidateID, &candidate.Name, &candidate.Email, &candidate.Phone,
		pq.Array(&candidate.Specializations), pq.Array(&candidate.Licenses),
		pq.Array(&candidate.Degrees), pq.Array(&candidate.Residencies),
		pq.Array(&candidate.Fellowships), pq.Array(&candidate.BoardCertifications),
		pq.Array(&candidate.HospitalAffiliations), pq.Array(&candidate.Memberships),
		&status, &candidate.CreatedAt, &candidate.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	candidate.ID = id.CandidateID(candidateID)
	candidate.Status = models.Status(status)
	return &candidate, nil
}
