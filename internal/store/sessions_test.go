package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/presencebot/internal/domain"
)

func TestSessionStoreUserSessionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(NewMemoryKV())

	sessions, err := s.UserSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	stored := []domain.UserSession{{
		UserID:       "u1",
		Username:     "alice",
		ActivityName: "Chess",
		ActivityType: 0,
		StartedAt:    1700000000000,
	}}
	require.NoError(t, s.SaveUserSessions(ctx, "u1", stored))

	sessions, err = s.UserSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, stored, sessions)

	// Saving an empty list removes the key.
	require.NoError(t, s.SaveUserSessions(ctx, "u1", nil))
	sessions, err = s.UserSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionStoreGroupSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(NewMemoryKV())

	group, err := s.GroupSession(ctx, "Chess", 0)
	require.NoError(t, err)
	assert.Nil(t, group)

	saved := domain.GroupSession{
		ActivityName: "Chess",
		ActivityType: 0,
		Members: map[string]domain.UserSession{
			"u1": {UserID: "u1", ActivityName: "Chess", StartedAt: 1700000000000},
		},
		CreatedAt: 1700000000000,
	}
	require.NoError(t, s.SaveGroupSession(ctx, saved))

	group, err = s.GroupSession(ctx, "Chess", 0)
	require.NoError(t, err)
	require.NotNil(t, group)
	assert.Equal(t, saved, *group)

	// Same name, different type is a distinct key.
	other, err := s.GroupSession(ctx, "Chess", 2)
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, s.RemoveGroupSession(ctx, "Chess", 0))
	group, err = s.GroupSession(ctx, "Chess", 0)
	require.NoError(t, err)
	assert.Nil(t, group)
}

func TestSessionStoreHistoryAppends(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(NewMemoryKV())

	entries, err := s.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	first := domain.HistoryEntry{UserID: "u1", ActivityName: "Chess", Duration: 1000, SessionType: domain.SessionSolo}
	second := domain.HistoryEntry{UserID: "u2", ActivityName: "Doom", Duration: 2000, SessionType: domain.SessionGroup}
	require.NoError(t, s.AppendHistory(ctx, first))
	require.NoError(t, s.AppendHistory(ctx, second))

	entries, err = s.History(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[0])
	assert.Equal(t, second, entries[1])
}

func TestMemoryKVMissReturnsErrNotFound(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "k", []byte(`"v"`)))
	value, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v"`), value)

	require.NoError(t, kv.Remove(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
