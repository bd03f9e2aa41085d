package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"medboard/internal/activity"
	"medboard/internal/admin/models"
	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
	"medboard/pkg/platform/sentinel"
	"medboard/pkg/requestcontext"
	"medboard/pkg/secrets"
)

// Store persists admin accounts.
type Store interface {
	Save(ctx context.Context, admin *models.Admin) error
	FindByID(ctx context.Context, adminID id.AdminID) (*models.Admin, error)
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	Count(ctx context.Context) (int, error)
}

// TokenIssuer mints signed access tokens for authenticated admins.
type TokenIssuer interface {
	GenerateAccessToken(adminID id.AdminID, email string, expiresIn time.Duration) (string, error)
}

// ActivityRecorder appends admin activity entries.
type ActivityRecorder interface {
	Record(ctx context.Context, action activity.Action, details string) error
}

const minPasswordLength = 8

// Service manages admin accounts and login.
type Service struct {
	store      Store
	tokens     TokenIssuer
	activities ActivityRecorder
	logger     *slog.Logger
	tokenTTL   time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithActivityRecorder(r ActivityRecorder) Option {
	return func(s *Service) { s.activities = r }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.tokenTTL = ttl }
}

func New(store Store, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		tokens:   tokens,
		logger:   slog.Default(),
		tokenTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest carries fields for a new admin account.
type CreateRequest struct {
	Name     string
	Email    string
	Password string
}

// Create registers a new admin account.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Admin, error) {
	if len(req.Password) < minPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	admin, err := models.NewAdmin(id.AdminID(uuid.New()), req.Name, req.Email, hash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now()
	}

	if err := s.store.Save(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an admin with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create admin")
	}
	if err := s.record(ctx, activity.ActionCreateAdmin, "created admin "+admin.Email); err != nil {
		return nil, err
	}
	return admin, nil
}

// LoginResult is a minted token plus the authenticated account.
type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	Admin     *models.Admin
}

// Login checks credentials and mints an access token. Unknown emails and bad
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	admin, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "admin lookup failed")
	}
	if !secrets.Compare(admin.PasswordHash, password) {
		s.logger.WarnContext(ctx, "failed login attempt",
			"request_id", requestcontext.RequestID(ctx),
			"email", email,
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(admin.ID, admin.Email, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint token")
	}

	// Login happens before auth middleware, so the actor is the account that
	// just authenticated.
	if err := s.record(requestcontext.WithActorID(ctx, admin.ID), activity.ActionAdminLogin, "admin login "+admin.Email); err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresIn: s.tokenTTL, Admin: admin}, nil
}

// Get fetches one admin by ID.
func (s *Service) Get(ctx context.Context, adminID id.AdminID) (*models.Admin, error) {
	admin, err := s.store.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "admin not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "admin lookup failed")
	}
	return admin, nil
}

// EnsureBootstrap seeds the first admin account when the store is empty.
// No-op when credentials are blank or any admin already exists.
func (s *Service) EnsureBootstrap(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "admin count failed")
	}
	if count > 0 {
		return nil
	}
	if _, err := s.Create(ctx, CreateRequest{Name: "Bootstrap Admin", Email: email, Password: password}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "bootstrap admin created", "email", email)
	return nil
}

func (s *Service) record(ctx context.Context, action activity.Action, details string) error {
	if s.activities == nil {
		return nil
	}
	return s.activities.Record(ctx, action, details)
}
