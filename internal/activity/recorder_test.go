package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medboard/internal/activity"
	"medboard/internal/activity/store/memory"
	id "medboard/pkg/domain"
	"medboard/pkg/requestcontext"
)

func TestRecorderRecord(t *testing.T) {
	store := memory.New()
	recorder := activity.NewRecorder(store, nil)

	adminID := id.AdminID(uuid.New())
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithActorID(context.Background(), adminID)
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	ctx = requestcontext.WithTime(ctx, now)

	require.NoError(t, recorder.Record(ctx, activity.ActionSuspendDoctor, "suspended doctor for review"))

	entries, err := recorder.List(ctx, activity.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, adminID, entry.AdminID)
	assert.Equal(t, activity.ActionSuspendDoctor, entry.Action)
	assert.Equal(t, "suspended doctor for review", entry.Details)
	assert.Equal(t, "203.0.113.7", entry.IPAddress)
	assert.Contains(t, entry.UserAgent, "Chrome")
	assert.Contains(t, entry.UserAgent, "on Linux")
	assert.Equal(t, now, entry.Timestamp)
	assert.False(t, entry.ID.IsNil())
}

func TestRecorderRecordWithoutRequestMetadata(t *testing.T) {
	store := memory.New()
	recorder := activity.NewRecorder(store, nil)

	require.NoError(t, recorder.Record(context.Background(), activity.ActionAdminLogin, "login"))

	entries, err := recorder.List(context.Background(), activity.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].AdminID.IsNil())
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestRecorderListFilters(t *testing.T) {
	store := memory.New()
	recorder := activity.NewRecorder(store, nil)
	ctx := context.Background()

	require.NoError(t, recorder.Record(ctx, activity.ActionCreateDoctor, "a"))
	require.NoError(t, recorder.Record(ctx, activity.ActionSuspendDoctor, "b"))
	require.NoError(t, recorder.Record(ctx, activity.ActionSuspendDoctor, "c"))

	t.Run("by action", func(t *testing.T) {
		entries, err := recorder.List(ctx, activity.Filter{Action: activity.ActionSuspendDoctor})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		// Newest first.
		assert.Equal(t, "c", entries[0].Details)
		assert.Equal(t, "b", entries[1].Details)
	})

	t.Run("limit", func(t *testing.T) {
		entries, err := recorder.List(ctx, activity.Filter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "c", entries[0].Details)
	})
}

func TestSummarizeUserAgent(t *testing.T) {
	t.Run("known browser", func(t *testing.T) {
		summary := activity.SummarizeUserAgent(
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15")
		assert.Contains(t, summary, "Safari")
		assert.Contains(t, summary, "on")
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, activity.SummarizeUserAgent(""))
	})

	t.Run("opaque agent stays non-empty", func(t *testing.T) {
		assert.NotEmpty(t, activity.SummarizeUserAgent("curl/8.4.0"))
	})
}
