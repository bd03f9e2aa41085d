package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blmodels "medboard/internal/blacklist/models"
	"medboard/internal/candidate/models"
	candidatestore "medboard/internal/candidate/store"
	doctormodels "medboard/internal/doctor/models"
	doctorstore "medboard/internal/doctor/store/doctor"
	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
)

type fakeBlacklist struct {
	entries []*blmodels.Entry
	listed  map[string]bool
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{listed: map[string]bool{}}
}

func (f *fakeBlacklist) IsListed(_ context.Context, email, _ string, _ []string) (bool, error) {
	return f.listed[email], nil
}

func (f *fakeBlacklist) Add(_ context.Context, reason blmodels.Reason, name, email, phone string, licenses []string) (*blmodels.Entry, error) {
	entry, err := blmodels.NewEntry(id.BlacklistEntryID(uuid.New()), reason, name, email, phone, licenses, time.Now())
	if err != nil {
		return nil, err
	}
	f.entries = append(f.entries, entry)
	f.listed[email] = true
	return entry, nil
}

type fixture struct {
	service    *Service
	candidates *candidatestore.InMemoryStore
	doctors    *doctorstore.InMemoryStore
	blacklist  *fakeBlacklist
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		candidates: candidatestore.NewInMemory(),
		doctors:    doctorstore.NewInMemory(),
		blacklist:  newFakeBlacklist(),
	}
	opts = append([]Option{WithBlacklist(f.blacklist)}, opts...)
	f.service = New(f.candidates, f.doctors, opts...)
	return f
}

func (f *fixture) intake(t *testing.T, email string) *models.Candidate {
	t.Helper()
	result, err := f.service.Create(context.Background(), CreateRequest{
		Name:        "Dr. Okafor",
		Email:       email,
		Credentials: doctormodels.Credentials{Licenses: []string{"NY-44821"}},
	})
	require.NoError(t, err)
	return result.Candidate
}

func TestCreate(t *testing.T) {
	t.Run("pending candidate with advisory flag off", func(t *testing.T) {
		f := newFixture(t)
		result, err := f.service.Create(context.Background(), CreateRequest{
			Name: "Dr. Okafor", Email: "okafor@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, result.Candidate.Status)
		assert.False(t, result.Blacklisted)
	})

	t.Run("blacklisted contact is flagged but not blocked", func(t *testing.T) {
		f := newFixture(t)
		f.blacklist.listed["okafor@example.com"] = true

		result, err := f.service.Create(context.Background(), CreateRequest{
			Name: "Dr. Okafor", Email: "okafor@example.com",
		})
		require.NoError(t, err)
		assert.True(t, result.Blacklisted)
		assert.Equal(t, models.StatusPending, result.Candidate.Status)
	})

	t.Run("missing email is a validation error", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(context.Background(), CreateRequest{Name: "Dr. Okafor"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestApprove(t *testing.T) {
	t.Run("promotes to verified approved doctor and removes candidate", func(t *testing.T) {
		f := newFixture(t)
		candidate := f.intake(t, "okafor@example.com")

		doctor, err := f.service.Approve(context.Background(), candidate.ID)
		require.NoError(t, err)

		assert.Equal(t, doctormodels.StatusApproved, doctor.Status)
		assert.True(t, doctor.Verified)
		assert.Equal(t, candidate.Email, doctor.Email)
		assert.Equal(t, []string{"NY-44821"}, doctor.Licenses)

		_, err = f.service.Get(context.Background(), candidate.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("rejected candidate cannot be approved", func(t *testing.T) {
		f := newFixture(t)
		candidate := f.intake(t, "okafor@example.com")
		_, err := f.service.Reject(context.Background(), candidate.ID)
		require.NoError(t, err)

		_, err = f.service.Approve(context.Background(), candidate.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("existing doctor email conflicts", func(t *testing.T) {
		f := newFixture(t)
		existing, err := doctormodels.NewDoctor(id.DoctorID(uuid.New()), "Dr. Chen", "okafor@example.com", "", doctormodels.Credentials{}, time.Now())
		require.NoError(t, err)
		require.NoError(t, f.doctors.Save(context.Background(), existing))

		candidate := f.intake(t, "okafor@example.com")
		_, err = f.service.Approve(context.Background(), candidate.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown candidate is not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Approve(context.Background(), id.CandidateID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestReject(t *testing.T) {
	t.Run("marks rejected and keeps the record", func(t *testing.T) {
		f := newFixture(t)
		candidate := f.intake(t, "okafor@example.com")

		rejected, err := f.service.Reject(context.Background(), candidate.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, rejected.Status)

		found, err := f.service.Get(context.Background(), candidate.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, found.Status)
	})

	t.Run("double rejection is invalid", func(t *testing.T) {
		f := newFixture(t)
		candidate := f.intake(t, "okafor@example.com")
		_, err := f.service.Reject(context.Background(), candidate.ID)
		require.NoError(t, err)
		_, err = f.service.Reject(context.Background(), candidate.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("third rejection of the same contact blacklists it", func(t *testing.T) {
		f := newFixture(t)

		for i := 0; i < 2; i++ {
			candidate := f.intake(t, "repeat@example.com")
			_, err := f.service.Reject(context.Background(), candidate.ID)
			require.NoError(t, err)
			assert.Empty(t, f.blacklist.entries)
		}

		candidate := f.intake(t, "repeat@example.com")
		_, err := f.service.Reject(context.Background(), candidate.ID)
		require.NoError(t, err)

		require.Len(t, f.blacklist.entries, 1)
		entry := f.blacklist.entries[0]
		assert.Equal(t, blmodels.ReasonCandidateRejectedMultiple, entry.Reason)
		assert.Equal(t, "repeat@example.com", entry.Email)
	})

	t.Run("already-listed contact is not blacklisted twice", func(t *testing.T) {
		f := newFixture(t, WithRejectionLimit(1))

		first := f.intake(t, "repeat@example.com")
		_, err := f.service.Reject(context.Background(), first.ID)
		require.NoError(t, err)
		require.Len(t, f.blacklist.entries, 1)

		second := f.intake(t, "repeat@example.com")
		_, err = f.service.Reject(context.Background(), second.ID)
		require.NoError(t, err)
		assert.Len(t, f.blacklist.entries, 1)
	})

	t.Run("license match counts toward the limit", func(t *testing.T) {
		f := newFixture(t, WithRejectionLimit(2))

		first := f.intake(t, "one@example.com")
		_, err := f.service.Reject(context.Background(), first.ID)
		require.NoError(t, err)

		// Different email, same license.
		second := f.intake(t, "two@example.com")
		_, err = f.service.Reject(context.Background(), second.ID)
		require.NoError(t, err)

		require.Len(t, f.blacklist.entries, 1)
	})
}
