package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medboard/internal/admin/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
	ptx "medboard/pkg/platform/tx"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists admin accounts in PostgreSQL.
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

const adminColumns = `id, email, name, password_hash, created_at`

func (s *PostgresStore) Save(ctx context.Context, admin *models.Admin) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO admins (`+adminColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(admin.ID), admin.Email, admin.Name, admin.PasswordHash, admin.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, adminID id.AdminID) (*models.Admin, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+adminColumns+` FROM admins WHERE id = $1`, uuid.UUID(adminID))
	return scanAdmin(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+adminColumns+` FROM admins WHERE LOWER(email) = LOWER($1)`, email)
	return scanAdmin(row)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

func scanAdmin(row *sql.Row) (*models.Admin, error) {
	var (
		admin   models.Admin
		adminID uuid.UUID
	)
	err := row.Scan(&adminID, &admin.Email, &admin.Name, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan admin: %w", err)
	}
	admin.ID = id.AdminID(adminID)
	return &admin, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var coder interface{ SQLState() string }
	if errors.As(err, &coder) {
		return coder.SQLState() == "23505"
	}
	return false
}
