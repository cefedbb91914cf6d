// Package domain defines the session bookkeeping and statistics logic for the
// presence tracker.
package domain

import "time"

// SessionType classifies whether a session overlapped with other members of
// the same activity.
type SessionType string

const (
	SessionSolo  SessionType = "solo"
	SessionGroup SessionType = "group"
)

// Period is the lookback window applied to queries and retrospectives.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// Window returns the period duration, or zero for PeriodAll (unbounded).
func (p Period) Window() time.Duration {
	switch p {
	case PeriodDay:
		return 24 * time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// Valid reports whether the period is one of the recognised values.
func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return true
	}
	return false
}

// UserSession is one member's currently running activity. Timestamps are Unix
// milliseconds; at most one session exists per (user, activity name, type).
type UserSession struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	AvatarURL    string `json:"avatar_url"`
	ActivityName string `json:"activity_name"`
	ActivityType int    `json:"activity_type"`
	StartedAt    int64  `json:"started_at"`
}

// Matches reports whether the session is for the given activity identity.
func (s UserSession) Matches(name string, activityType int) bool {
	return s.ActivityName == name && s.ActivityType == activityType
}

// GroupSession tracks every member currently engaged in one activity. It is
// created when the first member starts the activity and deleted when the last
// member ends it.
type GroupSession struct {
	ActivityName string                 `json:"activity_name"`
	ActivityType int                    `json:"activity_type"`
	Members      map[string]UserSession `json:"members"`
	CreatedAt    int64                  `json:"created_at"`
}

// HistoryEntry is the immutable record appended when a session ends.
type HistoryEntry struct {
	UserID       string      `json:"user_id"`
	Username     string      `json:"username"`
	ActivityName string      `json:"activity_name"`
	ActivityType int         `json:"activity_type"`
	StartedAt    int64       `json:"started_at"`
	EndedAt      int64       `json:"ended_at"`
	Duration     int64       `json:"duration"`
	SessionType  SessionType `json:"session_type"`
}

// ActivityGroup aggregates active and historical sessions sharing one
// activity identity inside a query window.
type ActivityGroup struct {
	ActivityName  string `json:"activity_name"`
	ActivityType  int    `json:"activity_type"`
	TotalDuration int64  `json:"total_duration"`
	SessionCount  int    `json:"session_count"`
	ActiveUsers   int    `json:"active_users"`
}
