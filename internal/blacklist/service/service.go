package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"medboard/internal/activity"
	"medboard/internal/blacklist/models"
	blackliststore "medboard/internal/blacklist/store"
	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
	"medboard/pkg/platform/sentinel"
	pstrings "medboard/pkg/platform/strings"
	"medboard/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Store persists blacklist entries.
type Store interface {
	Save(ctx context.Context, entry *models.Entry) error
	Update(ctx context.Context, entry *models.Entry) error
	FindByID(ctx context.Context, entryID id.BlacklistEntryID) (*models.Entry, error)
	List(ctx context.Context, filter blackliststore.Filter) ([]*models.Entry, error)
	Search(ctx context.Context, term string) ([]*models.Entry, error)
	Delete(ctx context.Context, entryID id.BlacklistEntryID) error
	ExistsFingerprint(ctx context.Context, fingerprints []string) (bool, error)
	ActiveFingerprints(ctx context.Context) ([]string, error)
}

// FingerprintIndex is the fast deny-set over active fingerprints. Optional:
// without one, membership checks go straight to the store.
type FingerprintIndex interface {
	Add(ctx context.Context, fingerprints []string) error
	Contains(ctx context.Context, fingerprints []string) (bool, error)
	Rebuild(ctx context.Context, fingerprints []string) error
}

// ActivityRecorder appends admin activity entries.
type ActivityRecorder interface {
	Record(ctx context.Context, action activity.Action, details string) error
}

// Service manages the blacklist: entries written on terminal removals and
// repeat rejections, plus the admin review surface over them.
type Service struct {
	store      Store
	index      FingerprintIndex
	activities ActivityRecorder
	logger     *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithIndex(index FingerprintIndex) Option {
	return func(s *Service) { s.index = index }
}

func WithActivityRecorder(r ActivityRecorder) Option {
	return func(s *Service) { s.activities = r }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WarmIndex loads every active fingerprint into the deny set. Call at
// startup so Contains answers authoritatively.
func (s *Service) WarmIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	fingerprints, err := s.store.ActiveFingerprints(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fingerprints")
	}
	return s.index.Rebuild(ctx, fingerprints)
}

// Add writes an active entry for the contact and feeds the deny set.
func (s *Service) Add(ctx context.Context, reason models.Reason, name, email, phone string, licenses []string) (*models.Entry, error) {
	entry, err := models.NewEntry(id.BlacklistEntryID(uuid.New()), reason, name, email, phone,
		licenses, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save blacklist entry")
	}
	if s.index != nil {
		if err := s.index.Add(ctx, entry.Fingerprints); err != nil {
			// The store row is the source of truth; a stale index only
			// weakens the advisory flag until the next rebuild.
			s.logger.WarnContext(ctx, "fingerprint index add failed", "error", err)
		}
	}
	if err := s.record(ctx, activity.ActionBlacklistAdd, "blacklisted "+entry.Email+" ("+string(reason)+")"); err != nil {
		return nil, err
	}
	return entry, nil
}

// IsListed reports whether any active entry covers the contact.
func (s *Service) IsListed(ctx context.Context, email, phone string, licenses []string) (bool, error) {
	fingerprints := models.FingerprintsFor(email, phone, licenses)
	if len(fingerprints) == 0 {
		return false, nil
	}
	if s.index != nil {
		listed, err := s.index.Contains(ctx, fingerprints)
		if err == nil {
			return listed, nil
		}
		s.logger.WarnContext(ctx, "fingerprint index check failed, falling back to store", "error", err)
	}
	return s.store.ExistsFingerprint(ctx, fingerprints)
}

// Get fetches one entry by ID.
func (s *Service) Get(ctx context.Context, entryID id.BlacklistEntryID) (*models.Entry, error) {
	entry, err := s.store.FindByID(ctx, entryID)
	if err != nil {
		return nil, wrapEntryErr(err)
	}
	return entry, nil
}

// List returns entries matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter blackliststore.Filter) ([]*models.Entry, error) {
	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blacklist")
	}
	if err := s.record(ctx, activity.ActionViewBlacklist, ""); err != nil {
		return nil, err
	}
	return entries, nil
}

// Search matches the term across email, phone, name and licenses.
func (s *Service) Search(ctx context.Context, term string) ([]*models.Entry, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "search term is required")
	}
	entries, err := s.store.Search(ctx, term)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search blacklist")
	}
	return entries, nil
}

// UpdateRequest carries editable entry fields; nil fields are untouched.
type UpdateRequest struct {
	Name     *string
	Email    *string
	Phone    *string
	Licenses *[]string
	Reason   *models.Reason
	IsActive *bool
}

// Update edits an entry. Contact edits recompute the fingerprint set, and
// any change that can shrink coverage triggers an index rebuild.
func (s *Service) Update(ctx context.Context, entryID id.BlacklistEntryID, req UpdateRequest) (*models.Entry, error) {
	entry, err := s.store.FindByID(ctx, entryID)
	if err != nil {
		return nil, wrapEntryErr(err)
	}

	if req.Name != nil {
		entry.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		entry.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		entry.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Licenses != nil {
		entry.Licenses = pstrings.DedupeAndTrim(*req.Licenses)
	}
	if req.Reason != nil {
		reason, err := models.ParseReason(string(*req.Reason))
		if err != nil {
			return nil, err
		}
		entry.Reason = reason
	}
	deactivated := false
	if req.IsActive != nil {
		deactivated = entry.IsActive && !*req.IsActive
		entry.IsActive = *req.IsActive
	}

	entry.Fingerprints = models.FingerprintsFor(entry.Email, entry.Phone, entry.Licenses)
	if len(entry.Fingerprints) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "blacklist entry needs at least one contact field")
	}

	if err := s.store.Update(ctx, entry); err != nil {
		return nil, wrapEntryErr(err)
	}
	if err := s.rebuildIndex(ctx); err != nil {
		return nil, err
	}

	action := activity.ActionBlacklistUpdate
	if deactivated {
		action = activity.ActionBlacklistDeactivate
	}
	if err := s.record(ctx, action, "updated blacklist entry for "+entry.Email); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deactivates an entry, or deletes it permanently. Deactivated
// entries keep their history but stop matching.
func (s *Service) Remove(ctx context.Context, entryID id.BlacklistEntryID, permanent bool) error {
	entry, err := s.store.FindByID(ctx, entryID)
	if err != nil {
		return wrapEntryErr(err)
	}

	if permanent {
		if err := s.store.Delete(ctx, entryID); err != nil {
			return wrapEntryErr(err)
		}
	} else {
		if !entry.IsActive {
			return dErrors.New(dErrors.CodeInvalidState, "blacklist entry is already inactive")
		}
		entry.IsActive = false
		if err := s.store.Update(ctx, entry); err != nil {
			return wrapEntryErr(err)
		}
	}
	if err := s.rebuildIndex(ctx); err != nil {
		return err
	}

	action := activity.ActionBlacklistDeactivate
	if permanent {
		action = activity.ActionBlacklistRemove
	}
	return s.record(ctx, action, "removed blacklist entry for "+entry.Email)
}

// rebuildIndex re-syncs the deny set from the store. Entries can share
// fingerprints, so removal is never a plain SRem.
func (s *Service) rebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	fingerprints, err := s.store.ActiveFingerprints(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fingerprints")
	}
	if err := s.index.Rebuild(ctx, fingerprints); err != nil {
		s.logger.WarnContext(ctx, "fingerprint index rebuild failed", "error", err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, action activity.Action, details string) error {
	if s.activities == nil {
		return nil
	}
	return s.activities.Record(ctx, action, details)
}

func wrapEntryErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "blacklist entry not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "blacklist entry already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "blacklist store failure")
}
