package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
)

func newApproved(t *testing.T) *Doctor {
	t.Helper()
	d, err := NewDoctor(id.DoctorID(uuid.New()), "Dr. Chen", "chen@example.com", "555-0100", Credentials{
		Licenses: []string{" L-100 ", "L-100", ""},
		Degrees:  []string{"MD"},
	}, time.Now())
	require.NoError(t, err)
	return d
}

func TestNewDoctor(t *testing.T) {
	t.Run("normalizes credential lists", func(t *testing.T) {
		d := newApproved(t)
		assert.Equal(t, []string{"L-100"}, d.Licenses)
		assert.Equal(t, StatusApproved, d.Status)
		assert.Equal(t, SentimentNeutral, d.Sentiment)
		assert.Equal(t, 0.6, d.SentimentScore)
	})

	t.Run("rejects missing name", func(t *testing.T) {
		_, err := NewDoctor(id.DoctorID(uuid.New()), "  ", "a@b.c", "", Credentials{}, time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects missing email", func(t *testing.T) {
		_, err := NewDoctor(id.DoctorID(uuid.New()), "Dr. Chen", "", "", Credentials{}, time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestSuspensionTransitions(t *testing.T) {
	t.Run("approved doctor can be suspended", func(t *testing.T) {
		d := newApproved(t)
		require.NoError(t, d.CanSuspend())
		d.ApplySuspension(time.Now())
		assert.Equal(t, StatusSuspended, d.Status)
	})

	t.Run("suspending twice is invalid state", func(t *testing.T) {
		d := newApproved(t)
		d.ApplySuspension(time.Now())
		err := d.CanSuspend()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("unsuspend requires suspended status", func(t *testing.T) {
		d := newApproved(t)
		err := d.CanUnsuspend()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

		d.ApplySuspension(time.Now())
		require.NoError(t, d.CanUnsuspend())
		d.ApplyUnsuspension(time.Now())
		assert.Equal(t, StatusApproved, d.Status)
	})
}

func TestSentimentDerivation(t *testing.T) {
	scoreCases := []struct {
		score float64
		want  Sentiment
	}{
		{0.0, SentimentNegative},
		{0.3, SentimentNegative},
		{0.31, SentimentNeutral},
		{0.6, SentimentNeutral},
		{0.61, SentimentPositive},
		{1.0, SentimentPositive},
	}
	for _, tc := range scoreCases {
		d := newApproved(t)
		require.NoError(t, d.ApplySentimentScore(tc.score, time.Now()))
		assert.Equal(t, tc.want, d.Sentiment, "score %v", tc.score)
		assert.Equal(t, tc.score, d.SentimentScore)
	}

	t.Run("score outside range is rejected", func(t *testing.T) {
		d := newApproved(t)
		err := d.ApplySentimentScore(1.5, time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("label edit forces canonical ceiling", func(t *testing.T) {
		d := newApproved(t)
		require.NoError(t, d.ApplySentimentScore(0.9, time.Now()))

		require.NoError(t, d.ApplySentiment(SentimentNegative, time.Now()))
		assert.Equal(t, 0.3, d.SentimentScore)

		require.NoError(t, d.ApplySentiment(SentimentNeutral, time.Now()))
		assert.Equal(t, 0.6, d.SentimentScore)

		require.NoError(t, d.ApplySentiment(SentimentPositive, time.Now()))
		assert.Equal(t, 1.0, d.SentimentScore)
	})

	t.Run("score always maps to label after any edit", func(t *testing.T) {
		d := newApproved(t)
		require.NoError(t, d.ApplySentiment(SentimentNegative, time.Now()))
		assert.Equal(t, d.Sentiment, SentimentForScore(d.SentimentScore))

		require.NoError(t, d.ApplySentimentScore(0.45, time.Now()))
		assert.Equal(t, d.Sentiment, SentimentForScore(d.SentimentScore))
	})
}

func TestNewSuspensionRecord(t *testing.T) {
	doctorID := id.DoctorID(uuid.New())

	rec, err := NewSuspensionRecord(id.SuspensionID(uuid.New()), doctorID, " misconduct ", " detail ", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "misconduct", rec.Reason)
	assert.Equal(t, "detail", rec.Detail)
	assert.False(t, rec.Revoked)

	_, err = NewSuspensionRecord(id.SuspensionID(uuid.New()), doctorID, "  ", "", time.Now())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
