package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"example.com/presencebot/internal/domain"
)

// SessionStore is the typed layer over the KV abstraction. It owns the key
// scheme and JSON encoding; callers never see raw keys or bytes.
type SessionStore struct {
	kv KV
}

// NewSessionStore wraps a KV driver.
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

// UserSessions returns the user's active sessions, empty when none exist.
func (s *SessionStore) UserSessions(ctx context.Context, userID string) ([]domain.UserSession, error) {
	var sessions []domain.UserSession
	if err := s.load(ctx, userKey(userID), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SaveUserSessions writes the user's active list, removing the key when the
// list is empty.
func (s *SessionStore) SaveUserSessions(ctx context.Context, userID string, sessions []domain.UserSession) error {
	if len(sessions) == 0 {
		return s.kv.Remove(ctx, userKey(userID))
	}
	return s.save(ctx, userKey(userID), sessions)
}

// GroupSession returns the group session for an activity, or nil when no one
// is engaged in it.
func (s *SessionStore) GroupSession(ctx context.Context, activityName string, activityType int) (*domain.GroupSession, error) {
	var group domain.GroupSession
	key := groupKey(activityType, activityName)

	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &group); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return &group, nil
}

// SaveGroupSession writes a group session.
func (s *SessionStore) SaveGroupSession(ctx context.Context, group domain.GroupSession) error {
	return s.save(ctx, groupKey(group.ActivityType, group.ActivityName), group)
}

// RemoveGroupSession deletes a group session entirely.
func (s *SessionStore) RemoveGroupSession(ctx context.Context, activityName string, activityType int) error {
	return s.kv.Remove(ctx, groupKey(activityType, activityName))
}

// AllActiveSessions returns every running session across all users.
func (s *SessionStore) AllActiveSessions(ctx context.Context) ([]domain.UserSession, error) {
	var sessions []domain.UserSession
	if err := s.load(ctx, keyAllActive, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SaveAllActiveSessions writes the global active list.
func (s *SessionStore) SaveAllActiveSessions(ctx context.Context, sessions []domain.UserSession) error {
	if len(sessions) == 0 {
		return s.kv.Remove(ctx, keyAllActive)
	}
	return s.save(ctx, keyAllActive, sessions)
}

// History returns the full append-only activity history.
func (s *SessionStore) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	if err := s.load(ctx, keyHistoryAll, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AppendHistory appends one completed session to the history log.
func (s *SessionStore) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	entries, err := s.History(ctx)
	if err != nil {
		return err
	}
	return s.save(ctx, keyHistoryAll, append(entries, entry))
}

// load unmarshals the value at key into out, leaving out untouched on a miss.
func (s *SessionStore) load(ctx context.Context, key string, out interface{}) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

func (s *SessionStore) save(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.kv.Set(ctx, key, raw)
}
