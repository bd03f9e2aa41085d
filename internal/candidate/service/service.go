package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"medboard/internal/activity"
	blmodels "medboard/internal/blacklist/models"
	"medboard/internal/candidate/models"
	candidatestore "medboard/internal/candidate/store"
	doctormodels "medboard/internal/doctor/models"
	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
	"medboard/pkg/platform/sentinel"
	"medboard/pkg/requestcontext"
)

// CandidateStore persists candidate records.
type CandidateStore interface {
	Save(ctx context.Context, candidate *models.Candidate) error
	Update(ctx context.Context, candidate *models.Candidate) error
	FindByID(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
	List(ctx context.Context, filter candidatestore.Filter) ([]*models.Candidate, error)
	Delete(ctx context.Context, candidateID id.CandidateID) error
	CountRejectedMatching(ctx context.Context, email string, licenses []string) (int, error)
}

// DoctorWriter is the slice of the doctor store approval needs.
type DoctorWriter interface {
	Save(ctx context.Context, doctor *doctormodels.Doctor) error
}

// BlacklistChecker answers fingerprint membership and records new entries.
// Intake only reads it for an advisory flag; nothing is blocked.
type BlacklistChecker interface {
	IsListed(ctx context.Context, email, phone string, licenses []string) (bool, error)
	Add(ctx context.Context, reason blmodels.Reason, name, email, phone string, licenses []string) (*blmodels.Entry, error)
}

// ActivityRecorder appends admin activity entries.
type ActivityRecorder interface {
	Record(ctx context.Context, action activity.Action, details string) error
}

// Service orchestrates candidate intake and review.
type Service struct {
	candidates CandidateStore
	doctors    DoctorWriter
	blacklist  BlacklistChecker
	activities ActivityRecorder
	logger     *slog.Logger

	// Rejections matching a contact before the contact is blacklisted.
	rejectionLimit int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithBlacklist(checker BlacklistChecker) Option {
	return func(s *Service) { s.blacklist = checker }
}

func WithActivityRecorder(r ActivityRecorder) Option {
	return func(s *Service) { s.activities = r }
}

func WithRejectionLimit(limit int) Option {
	return func(s *Service) { s.rejectionLimit = limit }
}

const defaultRejectionLimit = 3

func New(candidates CandidateStore, doctors DoctorWriter, opts ...Option) *Service {
	s := &Service{
		candidates:     candidates,
		doctors:        doctors,
		rejectionLimit: defaultRejectionLimit,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest carries intake fields for a new candidate.
type CreateRequest struct {
	Name        string
	Email       string
	Phone       string
	Credentials doctormodels.Credentials
}

// IntakeResult is a created candidate plus the advisory blacklist flag.
// A blacklisted contact is still accepted; the flag tells reviewers to look.
type IntakeResult struct {
	Candidate   *models.Candidate
	Blacklisted bool
}

// Create registers a pending candidate.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*IntakeResult, error) {
	candidate, err := models.NewCandidate(id.CandidateID(uuid.New()), req.Name, req.Email, req.Phone,
		req.Credentials, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	blacklisted := false
	if s.blacklist != nil {
		blacklisted, err = s.blacklist.IsListed(ctx, candidate.Email, candidate.Phone, candidate.Licenses)
		if err != nil {
			// The advisory flag must not fail intake.
			s.logger.WarnContext(ctx, "blacklist check failed during intake",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			blacklisted = false
		}
	}

	if err := s.candidates.Save(ctx, candidate); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create candidate")
	}
	if err := s.record(ctx, activity.ActionCreateCandidate, "created candidate "+candidate.Email); err != nil {
		return nil, err
	}
	return &IntakeResult{Candidate: candidate, Blacklisted: blacklisted}, nil
}

// Get fetches one candidate by ID.
func (s *Service) Get(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		return nil, wrapCandidateErr(err)
	}
	return candidate, nil
}

// List returns candidates matching the filter.
func (s *Service) List(ctx context.Context, filter candidatestore.Filter) ([]*models.Candidate, error) {
	candidates, err := s.candidates.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list candidates")
	}
	if err := s.record(ctx, activity.ActionViewCandidates, ""); err != nil {
		return nil, err
	}
	return candidates, nil
}

// Approve promotes a pending candidate into a verified approved doctor and
// removes the candidate record.
func (s *Service) Approve(ctx context.Context, candidateID id.CandidateID) (*doctormodels.Doctor, error) {
	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		return nil, wrapCandidateErr(err)
	}
	if err := candidate.CanReview(); err != nil {
		return nil, err
	}

	doctor, err := candidate.Promote(id.DoctorID(uuid.New()), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.doctors.Save(ctx, doctor); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a doctor with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create doctor from candidate")
	}
	if err := s.candidates.Delete(ctx, candidateID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove approved candidate")
	}
	if err := s.record(ctx, activity.ActionApproveDoctor, "approved candidate "+candidate.Email); err != nil {
		return nil, err
	}
	return doctor, nil
}

// Reject marks a pending candidate rejected. The record is retained, and once
// the same contact has been rejected rejectionLimit times they are
// blacklisted as a repeat offender.
func (s *Service) Reject(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		return nil, wrapCandidateErr(err)
	}
	if err := candidate.CanReview(); err != nil {
		return nil, err
	}

	candidate.ApplyRejection(requestcontext.Now(ctx))
	if err := s.candidates.Update(ctx, candidate); err != nil {
		return nil, wrapCandidateErr(err)
	}
	if err := s.record(ctx, activity.ActionRejectCandidate, "rejected candidate "+candidate.Email); err != nil {
		return nil, err
	}

	if s.blacklist != nil {
		rejections, err := s.candidates.CountRejectedMatching(ctx, candidate.Email, candidate.Licenses)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count rejections")
		}
		if rejections >= s.rejectionLimit {
			listed, err := s.blacklist.IsListed(ctx, candidate.Email, candidate.Phone, candidate.Licenses)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check blacklist")
			}
			if !listed {
				if _, err := s.blacklist.Add(ctx, blmodels.ReasonCandidateRejectedMultiple,
					candidate.Name, candidate.Email, candidate.Phone, candidate.Licenses); err != nil {
					return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to blacklist repeat candidate")
				}
				s.logger.InfoContext(ctx, "candidate blacklisted after repeat rejections",
					"request_id", requestcontext.RequestID(ctx),
					"candidate_id", candidate.ID.String(),
					"rejections", rejections,
				)
			}
		}
	}
	return candidate, nil
}

func (s *Service) record(ctx context.Context, action activity.Action, details string) error {
	if s.activities == nil {
		return nil
	}
	return s.activities.Record(ctx, action, details)
}

func wrapCandidateErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "candidate not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "candidate already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "candidate store failure")
}
