package doctor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medboard/internal/doctor/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
	ptx "medboard/pkg/platform/tx"
)

const uniqueViolation = "23505"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists doctors in PostgreSQL. Credential lists live in
// text[] columns. When the context carries a transaction the store joins it,
// which the suspension flow relies on for its count-then-act step.
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

const doctorColumns = `id, name, email, phone, specializations, licenses, degrees, residencies,
	fellowships, board_certifications, hospital_affiliations, memberships,
	status, verified, sentiment, sentiment_score, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, doctor *models.Doctor) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO doctors (`+doctorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		uuid.UUID(doctor.ID), doctor.Name, doctor.Email, doctor.Phone,
		pq.Array(doctor.Specializations), pq.Array(doctor.Licenses),
		pq.Array(doctor.Degrees), pq.Array(doctor.Residencies),
		pq.Array(doctor.Fellowships), pq.Array(doctor.BoardCertifications),
		pq.Array(doctor.HospitalAffiliations), pq.Array(doctor.Memberships),
		string(doctor.Status), doctor.Verified, string(doctor.Sentiment), doctor.SentimentScore,
		doctor.CreatedAt, doctor.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, doctor *models.Doctor) error {
	result, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE doctors SET
			name = $2, email = $3, phone = $4,
			specializations = $5, licenses = $6, degrees = $7, residencies = $8,
			fellowships = $9, board_certifications = $10, hospital_affiliations = $11, memberships = $12,
			status = $13, verified = $14, sentiment = $15, sentiment_score = $16, updated_at = $17
		WHERE id = $1`,
		uuid.UUID(doctor.ID), doctor.Name, doctor.Email, doctor.Phone,
		pq.Array(doctor.Specializations), pq.Array(doctor.Licenses),
		pq.Array(doctor.Degrees), pq.Array(doctor.Residencies),
		pq.Array(doctor.Fellowships), pq.Array(doctor.BoardCertifications),
		pq.Array(doctor.HospitalAffiliations), pq.Array(doctor.Memberships),
		string(doctor.Status), doctor.Verified, string(doctor.Sentiment), doctor.SentimentScore,
		doctor.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update doctor: %w", err)
	}
	return checkAffected(result)
}

func (s *PostgresStore) FindByID(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, uuid.UUID(doctorID))
	return scanDoctor(row)
}

// FindByIDForUpdate reads a doctor with a row lock inside the ambient
// transaction, serializing concurrent suspension attempts on the same doctor.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+doctorColumns+` FROM doctors WHERE id = $1 FOR UPDATE`, uuid.UUID(doctorID))
	return scanDoctor(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+doctorColumns+` FROM doctors WHERE LOWER(email) = LOWER($1)`, email)
	return scanDoctor(row)
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors`
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []*models.Doctor
	for rows.Next() {
		doctor, err := scanDoctorRow(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, doctor)
	}
	return doctors, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, doctorID id.DoctorID) error {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, uuid.UUID(doctorID))
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	return checkAffected(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoctor(row *sql.Row) (*models.Doctor, error) {
	doctor, err := scanDoctorFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return doctor, nil
}

func scanDoctorRow(rows *sql.Rows) (*models.Doctor, error) {
	return scanDoctorFrom(rows)
}

func scanDoctorFrom(row scanner) (*models.Doctor, error) {
	var (
		doctor    models.Doctor
		doctorID  uuid.UUID
		status    string
		sentiment string
	)
	err := row.Scan(
		&doctorID, &doctor.Name, &doctor.Email, &doctor.Phone,
		pq.Array(&doctor.Specializations), pq.Array(&doctor.Licenses),
		pq.Array(&doctor.Degrees), pq.Array(&doctor.Residencies),
		pq.Array(&doctor.Fellowships), pq.Array(&doctor.BoardCertifications),
		pq.Array(&doctor.HospitalAffiliations), pq.Array(&doctor.Memberships),
		&status, &doctor.Verified, &sentiment, &doctor.SentimentScore,
		&doctor.CreatedAt, &doctor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan doctor: %w", err)
	}
	doctor.ID = id.DoctorID(doctorID)
	doctor.Status = models.Status(status)
	doctor.Sentiment = models.Sentiment(sentiment)
	return &doctor, nil
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

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	// The pgx stdlib driver reports SQLSTATE through its own error type.
	type sqlState interface{ SQLState() string }
	var coded sqlState
	if errors.As(err, &coded) {
		return coded.SQLState() == uniqueViolation
	}
	return false
}
