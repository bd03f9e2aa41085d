package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"medboard/internal/activity"
	blmodels "medboard/internal/blacklist/models"
	doctorstore "medboard/internal/doctor/store/doctor"

	"medboard/internal/doctor/models"
	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
	"medboard/pkg/platform/sentinel"
	"medboard/pkg/requestcontext"
)

// CreateRequest carries the fields for direct doctor creation.
type CreateRequest struct {
	Name        string
	Email       string
	Phone       string
	Credentials models.Credentials
}

// CredentialEdits carries per-list credential changes; nil lists are left
// untouched. Merging happens inside the update transaction so concurrent
// edits to different lists don't clobber each other.
type CredentialEdits struct {
	Specializations      *[]string
	Licenses             *[]string
	Degrees              *[]string
	Residencies          *[]string
	Fellowships          *[]string
	BoardCertifications  *[]string
	HospitalAffiliations *[]string
	Memberships          *[]string
}

func (e *CredentialEdits) apply(c *models.Credentials) {
	set := func(dst *[]string, src *[]string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.Specializations, e.Specializations)
	set(&c.Licenses, e.Licenses)
	set(&c.Degrees, e.Degrees)
	set(&c.Residencies, e.Residencies)
	set(&c.Fellowships, e.Fellowships)
	set(&c.BoardCertifications, e.BoardCertifications)
	set(&c.HospitalAffiliations, e.HospitalAffiliations)
	set(&c.Memberships, e.Memberships)
}

// UpdateRequest carries optional edits; nil fields are left untouched.
// Sentiment edits follow the last-write rule: an explicit score re-derives
// the label, an explicit label forces the score to its bucket ceiling. When
// a request carries both, the score wins.
type UpdateRequest struct {
	Name           *string
	Email          *string
	Phone          *string
	Credentials    *CredentialEdits
	Sentiment      *models.Sentiment
	SentimentScore *float64
}

// SuspendResult is the outcome of a suspension attempt: either the doctor
// was suspended and retained, or the strike limit was crossed and the doctor
// was deleted and blacklisted. Never both.
type SuspendResult struct {
	Doctor      *models.Doctor
	Record      *models.SuspensionRecord
	Deleted     bool
	StrikeCount int
}

// Create registers an approved doctor directly, bypassing candidate review.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Doctor, error) {
	ctx, span := s.tracer.Start(ctx, "doctor.Create")
	defer span.End()
	start := time.Now()

	doctor, err := models.NewDoctor(id.DoctorID(uuid.New()), req.Name, req.Email, req.Phone,
		req.Credentials, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.doctors.Save(ctx, doctor); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a doctor with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create doctor")
	}

	if err := s.record(ctx, activity.ActionCreateDoctor, "created doctor "+doctor.Email); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.DoctorsCreated.Inc()
	}
	s.observe("create", time.Since(start).Seconds())
	return doctor, nil
}

// Get fetches one doctor by ID.
func (s *Service) Get(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error) {
	doctor, err := s.doctors.FindByID(ctx, doctorID)
	if err != nil {
		return nil, wrapDoctorErr(err)
	}
	return doctor, nil
}

// List returns doctors matching the filter.
func (s *Service) List(ctx context.Context, filter doctorstore.Filter) ([]*models.Doctor, error) {
	doctors, err := s.doctors.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list doctors")
	}
	if err := s.record(ctx, activity.ActionViewDoctors, ""); err != nil {
		return nil, err
	}
	return doctors, nil
}

// Update applies edits to a doctor's profile and sentiment.
func (s *Service) Update(ctx context.Context, doctorID id.DoctorID, req UpdateRequest) (*models.Doctor, error) {
	ctx, span := s.tracer.Start(ctx, "doctor.Update")
	defer span.End()

	var updated *models.Doctor
	err := s.tx.RunInTx(ctx, doctorID.String(), func(txCtx context.Context) error {
		doctor, err := s.doctors.FindByIDForUpdate(txCtx, doctorID)
		if err != nil {
			return wrapDoctorErr(err)
		}

		now := requestcontext.Now(txCtx)
		if req.Name != nil {
			doctor.Name = *req.Name
		}
		if req.Email != nil {
			doctor.Email = *req.Email
		}
		if req.Phone != nil {
			doctor.Phone = *req.Phone
		}
		if req.Credentials != nil {
			req.Credentials.apply(&doctor.Credentials)
			doctor.Credentials.Normalize()
		}
		if req.Sentiment != nil {
			if err := doctor.ApplySentiment(*req.Sentiment, now); err != nil {
				return err
			}
		}
		if req.SentimentScore != nil {
			if err := doctor.ApplySentimentScore(*req.SentimentScore, now); err != nil {
				return err
			}
		}
		doctor.UpdatedAt = now

		if err := s.doctors.Update(txCtx, doctor); err != nil {
			return wrapDoctorErr(err)
		}
		if err := s.record(txCtx, activity.ActionUpdateDoctor, "updated doctor "+doctor.Email); err != nil {
			return err
		}
		updated = doctor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Suspend applies one suspension to the doctor. The ledger is counted and
// acted on inside a per-doctor transaction: a doctor already carrying the
// strike limit in non-revoked records is deleted and blacklisted instead of
// entering the suspended state. Concurrent suspensions of the same doctor
// serialize here, so the limit can never be silently overshot.
func (s *Service) Suspend(ctx context.Context, doctorID id.DoctorID, reason, detail string) (*SuspendResult, error) {
	ctx, span := s.tracer.Start(ctx, "doctor.Suspend")
	defer span.End()
	start := time.Now()

	var result SuspendResult
	err := s.tx.RunInTx(ctx, doctorID.String(), func(txCtx context.Context) error {
		doctor, err := s.doctors.FindByIDForUpdate(txCtx, doctorID)
		if err != nil {
			return wrapDoctorErr(err)
		}
		if err := doctor.CanSuspend(); err != nil {
			return err
		}

		record, err := models.NewSuspensionRecord(id.SuspensionID(uuid.New()), doctorID,
			reason, detail, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}

		priorStrikes, err := s.suspensions.CountActive(txCtx, doctorID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count suspensions")
		}
		result.StrikeCount = priorStrikes + 1

		if priorStrikes >= s.suspensionLimit {
			// Strike limit crossed: the doctor is removed, the ledger goes
			// with them, and the contact is blacklisted so they cannot
			// re-onboard. The triggering record is never persisted.
			return s.removeDoctor(txCtx, doctor, blmodels.ReasonDoctorDeleted,
				fmt.Sprintf("deleted doctor %s after %d suspensions", doctor.Email, result.StrikeCount))
		}

		if err := s.suspensions.Append(txCtx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append suspension")
		}
		doctor.ApplySuspension(requestcontext.Now(txCtx))
		if err := s.doctors.Update(txCtx, doctor); err != nil {
			return wrapDoctorErr(err)
		}
		if err := s.record(txCtx, activity.ActionSuspendDoctor,
			fmt.Sprintf("suspended doctor %s (strike %d)", doctor.Email, result.StrikeCount)); err != nil {
			return err
		}
		result.Doctor = doctor
		result.Record = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Doctor == nil {
		result.Deleted = true
	}

	span.SetAttributes(attribute.Bool("deleted", result.Deleted), attribute.Int("strikes", result.StrikeCount))
	if s.metrics != nil {
		if result.Deleted {
			s.metrics.StrikeDeletions.Inc()
			s.metrics.DoctorsDeleted.Inc()
		} else {
			s.metrics.DoctorsSuspended.Inc()
		}
	}
	s.observe("suspend", time.Since(start).Seconds())
	return &result, nil
}

// Unsuspend returns a suspended doctor to approved status. The ledger is not
// touched: lifted suspensions keep counting toward the strike limit until
// explicitly revoked.
func (s *Service) Unsuspend(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error) {
	ctx, span := s.tracer.Start(ctx, "doctor.Unsuspend")
	defer span.End()
	start := time.Now()

	var updated *models.Doctor
	err := s.tx.RunInTx(ctx, doctorID.String(), func(txCtx context.Context) error {
		doctor, err := s.doctors.FindByIDForUpdate(txCtx, doctorID)
		if err != nil {
			return wrapDoctorErr(err)
		}
		if err := doctor.CanUnsuspend(); err != nil {
			return err
		}
		doctor.ApplyUnsuspension(requestcontext.Now(txCtx))
		if err := s.doctors.Update(txCtx, doctor); err != nil {
			return wrapDoctorErr(err)
		}
		if err := s.record(txCtx, activity.ActionUnsuspendDoctor, "unsuspended doctor "+doctor.Email); err != nil {
			return err
		}
		updated = doctor
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.DoctorsUnsuspended.Inc()
	}
	s.observe("unsuspend", time.Since(start).Seconds())
	return updated, nil
}

// Delete removes a doctor permanently and blacklists their contact details.
func (s *Service) Delete(ctx context.Context, doctorID id.DoctorID) error {
	ctx, span := s.tracer.Start(ctx, "doctor.Delete")
	defer span.End()
	start := time.Now()

	err := s.tx.RunInTx(ctx, doctorID.String(), func(txCtx context.Context) error {
		doctor, err := s.doctors.FindByIDForUpdate(txCtx, doctorID)
		if err != nil {
			return wrapDoctorErr(err)
		}
		return s.removeDoctor(txCtx, doctor, blmodels.ReasonDoctorDeleted, "deleted doctor "+doctor.Email)
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.DoctorsDeleted.Inc()
	}
	s.observe("delete", time.Since(start).Seconds())
	return nil
}

// removeDoctor performs terminal removal inside an ambient transaction:
// ledger cascade, doctor row, blacklist entry, activity record.
func (s *Service) removeDoctor(ctx context.Context, doctor *models.Doctor, reason blmodels.Reason, details string) error {
	if err := s.suspensions.DeleteByDoctor(ctx, doctor.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete suspension ledger")
	}
	if err := s.doctors.Delete(ctx, doctor.ID); err != nil {
		return wrapDoctorErr(err)
	}
	if s.blacklist != nil {
		if _, err := s.blacklist.Add(ctx, reason, doctor.Name, doctor.Email, doctor.Phone, doctor.Licenses); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to blacklist deleted doctor")
		}
	}
	return s.record(ctx, activity.ActionDeleteDoctor, details)
}

// ListSuspensions returns the doctor's ledger, oldest first.
func (s *Service) ListSuspensions(ctx context.Context, doctorID id.DoctorID) ([]*models.SuspensionRecord, error) {
	if _, err := s.doctors.FindByID(ctx, doctorID); err != nil {
		return nil, wrapDoctorErr(err)
	}
	records, err := s.suspensions.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list suspensions")
	}
	return records, nil
}

// RevokeSuspension flags one ledger record inert so it no longer counts
// toward the strike limit. The doctor's current status is unchanged.
func (s *Service) RevokeSuspension(ctx context.Context, suspensionID id.SuspensionID) (*models.SuspensionRecord, error) {
	record, err := s.suspensions.FindByID(ctx, suspensionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "suspension not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load suspension")
	}

	err = s.tx.RunInTx(ctx, record.DoctorID.String(), func(txCtx context.Context) error {
		if err := s.suspensions.MarkRevoked(txCtx, suspensionID); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "suspension not found")
			case errors.Is(err, sentinel.ErrInvalidState):
				return dErrors.New(dErrors.CodeInvalidState, "suspension is already revoked")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke suspension")
		}
		return s.record(txCtx, activity.ActionRevokeSuspension, "revoked suspension "+suspensionID.String())
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SuspensionsRevoked.Inc()
	}
	record.Revoked = true
	return record, nil
}

func wrapDoctorErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "doctor not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "a doctor with this email already exists")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidState, "doctor is not in a valid state for this operation")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "doctor store failure")
}
