package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"medboard/internal/activity"
	blmodels "medboard/internal/blacklist/models"
	"medboard/internal/doctor/metrics"
	"medboard/internal/doctor/models"
	doctorstore "medboard/internal/doctor/store/doctor"
	id "medboard/pkg/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// DoctorStore persists doctor aggregates.
type DoctorStore interface {
	Save(ctx context.Context, doctor *models.Doctor) error
	Update(ctx context.Context, doctor *models.Doctor) error
	FindByID(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error)
	FindByIDForUpdate(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error)
	FindByEmail(ctx context.Context, email string) (*models.Doctor, error)
	List(ctx context.Context, filter doctorstore.Filter) ([]*models.Doctor, error)
	Delete(ctx context.Context, doctorID id.DoctorID) error
}

// SuspensionStore persists the append-only suspension ledger.
type SuspensionStore interface {
	Append(ctx context.Context, record *models.SuspensionRecord) error
	FindByID(ctx context.Context, suspensionID id.SuspensionID) (*models.SuspensionRecord, error)
	ListByDoctor(ctx context.Context, doctorID id.DoctorID) ([]*models.SuspensionRecord, error)
	CountActive(ctx context.Context, doctorID id.DoctorID) (int, error)
	MarkRevoked(ctx context.Context, suspensionID id.SuspensionID) error
	DeleteByDoctor(ctx context.Context, doctorID id.DoctorID) error
}

// BlacklistWriter records terminal removals in the blacklist.
type BlacklistWriter interface {
	Add(ctx context.Context, reason blmodels.Reason, name, email, phone string, licenses []string) (*blmodels.Entry, error)
}

// ActivityRecorder appends admin activity entries.
type ActivityRecorder interface {
	Record(ctx context.Context, action activity.Action, details string) error
}

// Service orchestrates the doctor lifecycle: creation, edits, the suspension
// state machine with its strike-limit deletion rule, and sentiment updates.
type Service struct {
	doctors     DoctorStore
	suspensions SuspensionStore
	blacklist   BlacklistWriter
	activities  ActivityRecorder
	tx          StoreTx
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer

	// A doctor's strike limit: one more non-revoked suspension than this
	// deletes the doctor instead of suspending them.
	suspensionLimit int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

func WithBlacklist(w BlacklistWriter) Option {
	return func(s *Service) { s.blacklist = w }
}

func WithActivityRecorder(r ActivityRecorder) Option {
	return func(s *Service) { s.activities = r }
}

func WithSuspensionLimit(limit int) Option {
	return func(s *Service) { s.suspensionLimit = limit }
}

func WithTracing() Option {
	return func(s *Service) { s.tracer = otel.Tracer("doctor.service") }
}

const defaultSuspensionLimit = 5

// New constructs a doctor Service. Without options it runs with the
// sharded in-memory transaction boundary, no metrics and no tracing.
func New(doctors DoctorStore, suspensions SuspensionStore, opts ...Option) *Service {
	s := &Service{
		doctors:         doctors,
		suspensions:     suspensions,
		suspensionLimit: defaultSuspensionLimit,
		logger:          slog.Default(),
		tracer:          noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx()
	}
	return s
}

func (s *Service) record(ctx context.Context, action activity.Action, details string) error {
	if s.activities == nil {
		return nil
	}
	return s.activities.Record(ctx, action, details)
}

func (s *Service) observe(operation string, seconds float64) {
	if s.metrics != nil {
		s.metrics.LifecycleDuration.WithLabelValues(operation).Observe(seconds)
	}
}
