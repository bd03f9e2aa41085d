package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medboard/internal/activity"
	activitymemory "medboard/internal/activity/store/memory"
	blmodels "medboard/internal/blacklist/models"
	"medboard/internal/doctor/models"
	doctorstore "medboard/internal/doctor/store/doctor"
	suspensionstore "medboard/internal/doctor/store/suspension"
	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
)

type fakeBlacklist struct {
	mu      sync.Mutex
	entries []*blmodels.Entry
}

func (f *fakeBlacklist) Add(_ context.Context, reason blmodels.Reason, name, email, phone string, licenses []string) (*blmodels.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, err := blmodels.NewEntry(id.BlacklistEntryID(uuid.New()), reason, name, email, phone, licenses, time.Now())
	if err != nil {
		return nil, err
	}
	f.entries = append(f.entries, entry)
	return entry, nil
}

type fixture struct {
	service     *Service
	doctors     *doctorstore.InMemoryStore
	suspensions *suspensionstore.InMemoryStore
	blacklist   *fakeBlacklist
	activities  *activity.Recorder
	activityLog *activitymemory.Store
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		doctors:     doctorstore.NewInMemory(),
		suspensions: suspensionstore.NewInMemory(),
		blacklist:   &fakeBlacklist{},
		activityLog: activitymemory.New(),
	}
	f.activities = activity.NewRecorder(f.activityLog, nil)
	opts = append([]Option{
		WithBlacklist(f.blacklist),
		WithActivityRecorder(f.activities),
	}, opts...)
	f.service = New(f.doctors, f.suspensions, opts...)
	return f
}

func (f *fixture) createDoctor(t *testing.T, email string) *models.Doctor {
	t.Helper()
	doctor, err := f.service.Create(context.Background(), CreateRequest{
		Name:  "Dr. Chen",
		Email: email,
		Credentials: models.Credentials{
			Licenses: []string{"NY-44821"},
		},
	})
	require.NoError(t, err)
	return doctor
}

func TestCreate(t *testing.T) {
	t.Run("new doctor is approved with neutral sentiment", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		assert.Equal(t, models.StatusApproved, doctor.Status)
		assert.Equal(t, models.SentimentNeutral, doctor.Sentiment)
		assert.InDelta(t, 0.6, doctor.SentimentScore, 1e-9)
		assert.False(t, doctor.Verified)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		f := newFixture(t)
		f.createDoctor(t, "chen@example.com")

		_, err := f.service.Create(context.Background(), CreateRequest{Name: "Other", Email: "CHEN@example.com"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(context.Background(), CreateRequest{Email: "x@example.com"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("creation is audited", func(t *testing.T) {
		f := newFixture(t)
		f.createDoctor(t, "audited@example.com")

		entries, err := f.activityLog.List(context.Background(), activity.Filter{Action: activity.ActionCreateDoctor})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestSuspend(t *testing.T) {
	t.Run("first suspension transitions and appends a record", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		result, err := f.service.Suspend(context.Background(), doctor.ID, "complaint", "patient report")
		require.NoError(t, err)

		assert.False(t, result.Deleted)
		assert.Equal(t, 1, result.StrikeCount)
		assert.Equal(t, models.StatusSuspended, result.Doctor.Status)
		require.NotNil(t, result.Record)
		assert.Equal(t, "complaint", result.Record.Reason)

		records, err := f.service.ListSuspensions(context.Background(), doctor.ID)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("suspending a suspended doctor is invalid", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		_, err := f.service.Suspend(context.Background(), doctor.ID, "complaint", "")
		require.NoError(t, err)
		_, err = f.service.Suspend(context.Background(), doctor.ID, "again", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("empty reason is a validation error", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		_, err := f.service.Suspend(context.Background(), doctor.ID, "  ", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("unknown doctor is not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Suspend(context.Background(), id.DoctorID(uuid.New()), "complaint", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// suspendAndLift runs one full suspend/unsuspend cycle, leaving the ledger
// one non-revoked record longer.
func suspendAndLift(t *testing.T, f *fixture, doctorID id.DoctorID) {
	t.Helper()
	result, err := f.service.Suspend(context.Background(), doctorID, "complaint", "")
	require.NoError(t, err)
	require.False(t, result.Deleted)
	_, err = f.service.Unsuspend(context.Background(), doctorID)
	require.NoError(t, err)
}

func TestStrikeLimitDeletion(t *testing.T) {
	t.Run("sixth non-revoked suspension deletes and blacklists", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		for i := 0; i < 5; i++ {
			suspendAndLift(t, f, doctor.ID)
		}

		result, err := f.service.Suspend(context.Background(), doctor.ID, "final complaint", "")
		require.NoError(t, err)

		assert.True(t, result.Deleted)
		assert.Equal(t, 6, result.StrikeCount)
		assert.Nil(t, result.Doctor)
		assert.Nil(t, result.Record)

		// Doctor and ledger are gone.
		_, err = f.service.Get(context.Background(), doctor.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		count, err := f.suspensions.CountActive(context.Background(), doctor.ID)
		require.NoError(t, err)
		assert.Zero(t, count)

		// Contact is blacklisted with the deletion reason.
		require.Len(t, f.blacklist.entries, 1)
		entry := f.blacklist.entries[0]
		assert.Equal(t, blmodels.ReasonDoctorDeleted, entry.Reason)
		assert.Equal(t, "chen@example.com", entry.Email)
		assert.Contains(t, entry.Licenses, "NY-44821")
	})

	t.Run("revoked suspensions do not count toward the limit", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		var firstRecord *models.SuspensionRecord
		for i := 0; i < 5; i++ {
			result, err := f.service.Suspend(context.Background(), doctor.ID, "complaint", "")
			require.NoError(t, err)
			if i == 0 {
				firstRecord = result.Record
			}
			_, err = f.service.Unsuspend(context.Background(), doctor.ID)
			require.NoError(t, err)
		}

		_, err := f.service.RevokeSuspension(context.Background(), firstRecord.ID)
		require.NoError(t, err)

		// Only 4 strikes remain, so the next suspension retains the doctor.
		result, err := f.service.Suspend(context.Background(), doctor.ID, "complaint", "")
		require.NoError(t, err)
		assert.False(t, result.Deleted)
		assert.Equal(t, 5, result.StrikeCount)
		assert.Equal(t, models.StatusSuspended, result.Doctor.Status)
		assert.Empty(t, f.blacklist.entries)
	})

	t.Run("custom limit is honored", func(t *testing.T) {
		f := newFixture(t, WithSuspensionLimit(1))
		doctor := f.createDoctor(t, "chen@example.com")

		suspendAndLift(t, f, doctor.ID)
		result, err := f.service.Suspend(context.Background(), doctor.ID, "complaint", "")
		require.NoError(t, err)
		assert.True(t, result.Deleted)
		assert.Equal(t, 2, result.StrikeCount)
	})

	t.Run("deletion path is audited as a deletion, not a suspension", func(t *testing.T) {
		f := newFixture(t, WithSuspensionLimit(0))
		doctor := f.createDoctor(t, "chen@example.com")

		result, err := f.service.Suspend(context.Background(), doctor.ID, "complaint", "")
		require.NoError(t, err)
		require.True(t, result.Deleted)

		deleted, err := f.activityLog.List(context.Background(), activity.Filter{Action: activity.ActionDeleteDoctor})
		require.NoError(t, err)
		assert.Len(t, deleted, 1)
		suspended, err := f.activityLog.List(context.Background(), activity.Filter{Action: activity.ActionSuspendDoctor})
		require.NoError(t, err)
		assert.Empty(t, suspended)
	})
}

func TestConcurrentSuspensionAtLimit(t *testing.T) {
	f := newFixture(t)
	doctor := f.createDoctor(t, "chen@example.com")
	for i := 0; i < 5; i++ {
		suspendAndLift(t, f, doctor.ID)
	}

	// Many racing suspensions: exactly one may cross the limit and delete;
	// the rest must observe the doctor as already gone.
	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		deletions int
		notFound  int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.service.Suspend(context.Background(), doctor.ID, "race", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && result.Deleted:
				deletions++
			case err != nil && dErrors.HasCode(err, dErrors.CodeNotFound):
				notFound++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, deletions)
	assert.Equal(t, racers-1, notFound)
	assert.Len(t, f.blacklist.entries, 1)
}

func TestUnsuspend(t *testing.T) {
	t.Run("returns doctor to approved and keeps the ledger", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		_, err := f.service.Suspend(context.Background(), doctor.ID, "complaint", "")
		require.NoError(t, err)
		updated, err := f.service.Unsuspend(context.Background(), doctor.ID)
		require.NoError(t, err)

		assert.Equal(t, models.StatusApproved, updated.Status)
		count, err := f.suspensions.CountActive(context.Background(), doctor.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("unsuspending an approved doctor is invalid", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		_, err := f.service.Unsuspend(context.Background(), doctor.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestRevokeSuspension(t *testing.T) {
	f := newFixture(t)
	doctor := f.createDoctor(t, "chen@example.com")
	result, err := f.service.Suspend(context.Background(), doctor.ID, "complaint", "")
	require.NoError(t, err)

	t.Run("marks the record inert", func(t *testing.T) {
		revoked, err := f.service.RevokeSuspension(context.Background(), result.Record.ID)
		require.NoError(t, err)
		assert.True(t, revoked.Revoked)

		count, err := f.suspensions.CountActive(context.Background(), doctor.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("doctor status is untouched by revocation", func(t *testing.T) {
		found, err := f.service.Get(context.Background(), doctor.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuspended, found.Status)
	})

	t.Run("double revoke is invalid", func(t *testing.T) {
		_, err := f.service.RevokeSuspension(context.Background(), result.Record.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("unknown suspension is not found", func(t *testing.T) {
		_, err := f.service.RevokeSuspension(context.Background(), id.SuspensionID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestDelete(t *testing.T) {
	t.Run("removes doctor, ledger and blacklists contact", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")
		_, err := f.service.Suspend(context.Background(), doctor.ID, "complaint", "")
		require.NoError(t, err)

		require.NoError(t, f.service.Delete(context.Background(), doctor.ID))

		_, err = f.service.Get(context.Background(), doctor.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		count, err := f.suspensions.CountActive(context.Background(), doctor.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
		require.Len(t, f.blacklist.entries, 1)
		assert.Equal(t, blmodels.ReasonDoctorDeleted, f.blacklist.entries[0].Reason)
	})

	t.Run("unknown doctor is not found", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.Delete(context.Background(), id.DoctorID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestUpdateSentiment(t *testing.T) {
	t.Run("explicit score re-derives the label", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		score := 0.25
		updated, err := f.service.Update(context.Background(), doctor.ID, UpdateRequest{SentimentScore: &score})
		require.NoError(t, err)
		assert.Equal(t, models.SentimentNegative, updated.Sentiment)
		assert.InDelta(t, 0.25, updated.SentimentScore, 1e-9)
	})

	t.Run("explicit label forces the score to its ceiling", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		sentiment := models.SentimentPositive
		updated, err := f.service.Update(context.Background(), doctor.ID, UpdateRequest{Sentiment: &sentiment})
		require.NoError(t, err)
		assert.Equal(t, models.SentimentPositive, updated.Sentiment)
		assert.InDelta(t, 1.0, updated.SentimentScore, 1e-9)
	})

	t.Run("score wins when both are sent", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		sentiment := models.SentimentPositive
		score := 0.1
		updated, err := f.service.Update(context.Background(), doctor.ID, UpdateRequest{
			Sentiment:      &sentiment,
			SentimentScore: &score,
		})
		require.NoError(t, err)
		assert.Equal(t, models.SentimentNegative, updated.Sentiment)
		assert.InDelta(t, 0.1, updated.SentimentScore, 1e-9)
	})

	t.Run("out-of-range score is a validation error", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		score := 1.5
		_, err := f.service.Update(context.Background(), doctor.ID, UpdateRequest{SentimentScore: &score})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("credential edits are normalized", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.createDoctor(t, "chen@example.com")

		specializations := []string{" cardiology ", "cardiology", "", "oncology"}
		updated, err := f.service.Update(context.Background(), doctor.ID, UpdateRequest{
			Credentials: &CredentialEdits{Specializations: &specializations},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"cardiology", "oncology"}, updated.Specializations)
		// Untouched lists survive the edit.
		assert.Equal(t, []string{"NY-44821"}, updated.Licenses)
	})
}
