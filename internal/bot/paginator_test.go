package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/presencebot/internal/domain"
)

func TestRegistryExpiresEntries(t *testing.T) {
	r := NewRegistry(5 * time.Minute)
	base := time.Date(2025, time.June, 16, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	p := r.New("owner", domain.PeriodDay)
	got, ok := r.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, "owner", got.OwnerID)
	assert.Equal(t, domain.PeriodDay, got.Period)
	assert.Equal(t, 0, got.Page)

	// Just inside the TTL.
	r.now = func() time.Time { return base.Add(5 * time.Minute) }
	_, ok = r.Get(p.ID)
	assert.True(t, ok)

	// Past the TTL the entry is dropped on access.
	r.now = func() time.Time { return base.Add(5*time.Minute + time.Second) }
	_, ok = r.Get(p.ID)
	assert.False(t, ok)
	_, ok = r.Get(p.ID)
	assert.False(t, ok)
}

func TestRegistrySweepDropsOnlyExpired(t *testing.T) {
	r := NewRegistry(5 * time.Minute)
	base := time.Date(2025, time.June, 16, 12, 0, 0, 0, time.UTC)

	r.now = func() time.Time { return base }
	old := r.New("owner", domain.PeriodDay)

	r.now = func() time.Time { return base.Add(4 * time.Minute) }
	fresh := r.New("owner", domain.PeriodWeek)

	r.now = func() time.Time { return base.Add(6 * time.Minute) }
	dropped := r.Sweep()
	assert.Equal(t, 1, dropped)

	_, ok := r.Get(old.ID)
	assert.False(t, ok)
	_, ok = r.Get(fresh.ID)
	assert.True(t, ok)
}

func TestRegistrySetCommitsStateAndHonorsExpiry(t *testing.T) {
	r := NewRegistry(5 * time.Minute)
	base := time.Date(2025, time.June, 16, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	p := r.New("owner", domain.PeriodDay)

	got, ok := r.Set(p.ID, 3, domain.PeriodWeek)
	require.True(t, ok)
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, domain.PeriodWeek, got.Period)

	got, ok = r.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, domain.PeriodWeek, got.Period)

	r.now = func() time.Time { return base.Add(6 * time.Minute) }
	_, ok = r.Set(p.ID, 4, domain.PeriodMonth)
	assert.False(t, ok)

	_, ok = r.Set("no-such-id", 1, domain.PeriodDay)
	assert.False(t, ok)
}

func TestRegistryGetReturnsSnapshot(t *testing.T) {
	r := NewRegistry(time.Minute)
	p := r.New("owner", domain.PeriodDay)

	snap, ok := r.Get(p.ID)
	require.True(t, ok)
	snap.Page = 42

	got, ok := r.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, 0, got.Page)
}

func TestRegistryConcurrentUpdates(t *testing.T) {
	r := NewRegistry(time.Minute)
	p := r.New("owner", domain.PeriodDay)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap, ok := r.Get(p.ID)
				if !ok {
					return
				}
				r.Set(p.ID, snap.Page+1, snap.Period)
			}
		}()
	}
	wg.Wait()

	got, ok := r.Get(p.ID)
	require.True(t, ok)
	assert.Greater(t, got.Page, 0)
	assert.Equal(t, domain.PeriodDay, got.Period)
}

func TestRegistryRunToleratesZeroTTL(t *testing.T) {
	r := NewRegistry(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(time.Minute)
	p := r.New("owner", domain.PeriodDay)
	r.Remove(p.ID)
	_, ok := r.Get(p.ID)
	assert.False(t, ok)
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, pageCount(0, 10))
	assert.Equal(t, 1, pageCount(1, 10))
	assert.Equal(t, 1, pageCount(10, 10))
	assert.Equal(t, 2, pageCount(11, 10))
	assert.Equal(t, 3, pageCount(25, 10))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m", formatDuration(0))
	assert.Equal(t, "45m", formatDuration(45*60*1000))
	assert.Equal(t, "1h 00m", formatDuration(60*60*1000))
	assert.Equal(t, "2h 05m", formatDuration((2*60+5)*60*1000))
}
