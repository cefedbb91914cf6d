//go:build integration

package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"

	"example.com/presencebot/internal/domain"
)

func TestRedisKVRoundTrip(t *testing.T) {
	ctx := context.Background()

	container, err := rediscontainer.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	addr := strings.TrimPrefix(endpoint, "redis://")

	kv, err := NewRedisKV(addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	_, err = kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "k", []byte(`{"a":1}`)))
	value, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), value)

	require.NoError(t, kv.Remove(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// The typed store works unchanged against Redis.
	sessions := NewSessionStore(kv)
	entry := domain.HistoryEntry{UserID: "u1", ActivityName: "Chess", Duration: 1000, SessionType: domain.SessionSolo}
	require.NoError(t, sessions.AppendHistory(ctx, entry))
	entries, err := sessions.History(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])
}
