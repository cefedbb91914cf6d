package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivitiesByPeriodWindowsAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.Local)
	millis := func(d time.Duration) int64 { return now.Add(d).UnixMilli() }

	repo.history = []HistoryEntry{
		// Ended 2h ago: inside the day window.
		{UserID: "u1", Username: "alice", ActivityName: "Chess", ActivityType: 0,
			StartedAt: millis(-3 * time.Hour), EndedAt: millis(-2 * time.Hour),
			Duration: time.Hour.Milliseconds(), SessionType: SessionSolo},
		// Ended 25h ago: outside the day window.
		{UserID: "u2", Username: "bob", ActivityName: "Chess", ActivityType: 0,
			StartedAt: millis(-26 * time.Hour), EndedAt: millis(-25 * time.Hour),
			Duration: time.Hour.Milliseconds(), SessionType: SessionSolo},
		{UserID: "u3", Username: "carol", ActivityName: "Doom", ActivityType: 0,
			StartedAt: millis(-8 * time.Hour), EndedAt: millis(-4 * time.Hour),
			Duration: (4 * time.Hour).Milliseconds(), SessionType: SessionGroup},
	}
	repo.all = []UserSession{
		// Started 30m ago: contributes live elapsed time.
		{UserID: "u4", Username: "dave", ActivityName: "Chess", ActivityType: 0,
			StartedAt: millis(-30 * time.Minute)},
		// Started 25h ago: outside the day window.
		{UserID: "u5", Username: "erin", ActivityName: "Chess", ActivityType: 0,
			StartedAt: millis(-25 * time.Hour)},
	}

	q := NewQuery(repo)
	q.now = func() time.Time { return now }

	groups, err := q.ActivitiesByPeriod(ctx, PeriodDay)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Doom has 4h, Chess has 1h + 30m live.
	assert.Equal(t, "Doom", groups[0].ActivityName)
	assert.Equal(t, (4 * time.Hour).Milliseconds(), groups[0].TotalDuration)
	assert.Equal(t, 1, groups[0].SessionCount)
	assert.Equal(t, 0, groups[0].ActiveUsers)

	assert.Equal(t, "Chess", groups[1].ActivityName)
	assert.Equal(t, time.Hour.Milliseconds()+(30*time.Minute).Milliseconds(), groups[1].TotalDuration)
	assert.Equal(t, 2, groups[1].SessionCount)
	assert.Equal(t, 1, groups[1].ActiveUsers)
}

func TestActivitiesByPeriodAllIsUnbounded(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.Local)

	repo.history = []HistoryEntry{
		{UserID: "u1", Username: "alice", ActivityName: "Chess", ActivityType: 0,
			StartedAt: now.Add(-100 * 24 * time.Hour).UnixMilli(),
			EndedAt:   now.Add(-99 * 24 * time.Hour).UnixMilli(),
			Duration:  (24 * time.Hour).Milliseconds(), SessionType: SessionSolo},
	}

	q := NewQuery(repo)
	q.now = func() time.Time { return now }

	groups, err := q.ActivitiesByPeriod(ctx, PeriodAll)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	groups, err = q.ActivitiesByPeriod(ctx, PeriodMonth)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestActivitiesByPeriodSeparatesActivityTypes(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.Local)

	repo.history = []HistoryEntry{
		{UserID: "u1", ActivityName: "Chess", ActivityType: 0,
			StartedAt: now.Add(-2 * time.Hour).UnixMilli(), EndedAt: now.Add(-time.Hour).UnixMilli(),
			Duration: time.Hour.Milliseconds(), SessionType: SessionSolo},
		{UserID: "u1", ActivityName: "Chess", ActivityType: 1,
			StartedAt: now.Add(-2 * time.Hour).UnixMilli(), EndedAt: now.Add(-time.Hour).UnixMilli(),
			Duration: time.Hour.Milliseconds(), SessionType: SessionSolo},
	}

	q := NewQuery(repo)
	q.now = func() time.Time { return now }

	groups, err := q.ActivitiesByPeriod(ctx, PeriodDay)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}
