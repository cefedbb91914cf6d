package domain

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"example.com/presencebot/internal/observability"
)

// SessionRepository captures the persistence operations the manager needs.
// The store package provides the Redis-backed implementation.
type SessionRepository interface {
	UserSessions(ctx context.Context, userID string) ([]UserSession, error)
	SaveUserSessions(ctx context.Context, userID string, sessions []UserSession) error
	GroupSession(ctx context.Context, activityName string, activityType int) (*GroupSession, error)
	SaveGroupSession(ctx context.Context, group GroupSession) error
	RemoveGroupSession(ctx context.Context, activityName string, activityType int) error
	AllActiveSessions(ctx context.Context) ([]UserSession, error)
	SaveAllActiveSessions(ctx context.Context, sessions []UserSession) error
	History(ctx context.Context) ([]HistoryEntry, error)
	AppendHistory(ctx context.Context, entry HistoryEntry) error
}

// Notifier reports join/leave events to the external API. Failures are logged
// and never affect session state.
type Notifier interface {
	PlayerJoined(ctx context.Context, session UserSession) error
	PlayerLeft(ctx context.Context, session UserSession) error
}

// Manager owns the session lifecycle: it matches activity starts to ends,
// classifies solo versus group play, and appends completed sessions to the
// history log. A single mutex serialises mutations; the gateway library
// dispatches presence events concurrently but session bookkeeping must be
// observed sequentially.
type Manager struct {
	mu       sync.Mutex
	repo     SessionRepository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager constructs a Manager. notifier may be nil when no event API is
// configured.
func NewManager(repo SessionRepository, notifier Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// StartInput carries the presence data for an activity start.
type StartInput struct {
	UserID       string
	Username     string
	AvatarURL    string
	ActivityName string
	ActivityType int
}

// StartResult reports the classification after a start.
type StartResult struct {
	SessionType SessionType
	// WasAlreadyGroup is true when the group session already had more than
	// one member before this start.
	WasAlreadyGroup bool
}

// EndResult reports the outcome of ending a session.
type EndResult struct {
	SessionType    SessionType
	Duration       int64
	RemainingUsers []UserSession
	Session        UserSession
}

// StartActivity records a new active session for the user and inserts the
// user into the activity's group session, creating it when the user is the
// first member. A start for an activity the user is already engaged in is a
// no-op that reports the current classification.
func (m *Manager) StartActivity(ctx context.Context, input StartInput) (StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.repo.UserSessions(ctx, input.UserID)
	if err != nil {
		return StartResult{}, err
	}

	group, err := m.repo.GroupSession(ctx, input.ActivityName, input.ActivityType)
	if err != nil {
		return StartResult{}, err
	}
	wasAlreadyGroup := group != nil && len(group.Members) > 1

	for _, existing := range sessions {
		if existing.Matches(input.ActivityName, input.ActivityType) {
			return StartResult{SessionType: classify(group), WasAlreadyGroup: wasAlreadyGroup}, nil
		}
	}

	session := UserSession{
		UserID:       input.UserID,
		Username:     input.Username,
		AvatarURL:    input.AvatarURL,
		ActivityName: input.ActivityName,
		ActivityType: input.ActivityType,
		StartedAt:    m.now().UnixMilli(),
	}

	if err := m.repo.SaveUserSessions(ctx, input.UserID, append(sessions, session)); err != nil {
		return StartResult{}, err
	}

	if group == nil {
		group = &GroupSession{
			ActivityName: input.ActivityName,
			ActivityType: input.ActivityType,
			Members:      make(map[string]UserSession),
			CreatedAt:    session.StartedAt,
		}
	}
	group.Members[input.UserID] = session
	if err := m.repo.SaveGroupSession(ctx, *group); err != nil {
		return StartResult{}, err
	}

	allActive, err := m.repo.AllActiveSessions(ctx)
	if err != nil {
		return StartResult{}, err
	}
	if err := m.repo.SaveAllActiveSessions(ctx, append(allActive, session)); err != nil {
		return StartResult{}, err
	}

	observability.RecordSessionStarted()
	observability.SetActiveSessions(len(allActive) + 1)

	m.notifyJoined(ctx, session)

	return StartResult{SessionType: classify(group), WasAlreadyGroup: wasAlreadyGroup}, nil
}

// EndActivity closes the user's session for the given activity. It returns
// nil when the user has no matching active session. The session type recorded
// in history reflects the group's member count before the removal.
func (m *Manager) EndActivity(ctx context.Context, userID, activityName string, activityType int) (*EndResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.repo.UserSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, s := range sessions {
		if s.Matches(activityName, activityType) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil
	}
	session := sessions[idx]

	endedAt := m.now().UnixMilli()
	duration := endedAt - session.StartedAt

	group, err := m.repo.GroupSession(ctx, activityName, activityType)
	if err != nil {
		return nil, err
	}

	// A missing group session is unexpected but tolerated: the end proceeds
	// from the user session alone, classified solo with no remaining users.
	sessionType := SessionSolo
	var remaining []UserSession
	if group != nil {
		sessionType = classify(group)
		delete(group.Members, userID)
		if len(group.Members) == 0 {
			if err := m.repo.RemoveGroupSession(ctx, activityName, activityType); err != nil {
				return nil, err
			}
		} else {
			if err := m.repo.SaveGroupSession(ctx, *group); err != nil {
				return nil, err
			}
			remaining = sortedMembers(group.Members)
		}
	} else {
		m.logger.Warn("no group session found while ending activity",
			zap.String("user_id", userID),
			zap.String("activity", activityName),
			zap.Int("activity_type", activityType))
	}

	entry := HistoryEntry{
		UserID:       session.UserID,
		Username:     session.Username,
		ActivityName: session.ActivityName,
		ActivityType: session.ActivityType,
		StartedAt:    session.StartedAt,
		EndedAt:      endedAt,
		Duration:     duration,
		SessionType:  sessionType,
	}
	if err := m.repo.AppendHistory(ctx, entry); err != nil {
		return nil, err
	}

	if err := m.repo.SaveUserSessions(ctx, userID, append(sessions[:idx:idx], sessions[idx+1:]...)); err != nil {
		return nil, err
	}

	allActive, err := m.repo.AllActiveSessions(ctx)
	if err != nil {
		return nil, err
	}
	filtered := allActive[:0:0]
	for _, s := range allActive {
		if s.UserID == userID && s.Matches(activityName, activityType) {
			continue
		}
		filtered = append(filtered, s)
	}
	if err := m.repo.SaveAllActiveSessions(ctx, filtered); err != nil {
		return nil, err
	}

	observability.RecordSessionEnded(string(sessionType))
	observability.SetActiveSessions(len(filtered))

	m.notifyLeft(ctx, session)

	return &EndResult{
		SessionType:    sessionType,
		Duration:       duration,
		RemainingUsers: remaining,
		Session:        session,
	}, nil
}

// GroupSessionUsers lists the members currently engaged in an activity,
// ordered by join time. The list is empty when no group session exists.
func (m *Manager) GroupSessionUsers(ctx context.Context, activityName string, activityType int) ([]UserSession, error) {
	group, err := m.repo.GroupSession(ctx, activityName, activityType)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, nil
	}
	return sortedMembers(group.Members), nil
}

// AllActiveSessions lists every running session across all users.
func (m *Manager) AllActiveSessions(ctx context.Context) ([]UserSession, error) {
	return m.repo.AllActiveSessions(ctx)
}

// UserActiveSessions lists the user's running sessions.
func (m *Manager) UserActiveSessions(ctx context.Context, userID string) ([]UserSession, error) {
	return m.repo.UserSessions(ctx, userID)
}

func (m *Manager) notifyJoined(ctx context.Context, session UserSession) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.PlayerJoined(ctx, session); err != nil {
		observability.RecordNotificationFailure("player_joined")
		m.logger.Warn("join notification failed",
			zap.String("user_id", session.UserID),
			zap.String("activity", session.ActivityName),
			zap.Error(err))
	}
}

func (m *Manager) notifyLeft(ctx context.Context, session UserSession) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.PlayerLeft(ctx, session); err != nil {
		observability.RecordNotificationFailure("player_left")
		m.logger.Warn("leave notification failed",
			zap.String("user_id", session.UserID),
			zap.String("activity", session.ActivityName),
			zap.Error(err))
	}
}

// classify reports group when the session has more than one member.
func classify(group *GroupSession) SessionType {
	if group != nil && len(group.Members) > 1 {
		return SessionGroup
	}
	return SessionSolo
}

func sortedMembers(members map[string]UserSession) []UserSession {
	out := make([]UserSession, 0, len(members))
	for _, s := range members {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt != out[j].StartedAt {
			return out[i].StartedAt < out[j].StartedAt
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
