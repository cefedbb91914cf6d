package domain

import (
	"context"
	"sort"
	"time"
)

type nowFunc func() time.Time

func defaultNow() time.Time { return time.Now() }

// FavoriteActivity is one entry of a user's top activities by play time.
type FavoriteActivity struct {
	ActivityName string `json:"activity_name"`
	ActivityType int    `json:"activity_type"`
	Duration     int64  `json:"duration"`
	Sessions     int    `json:"sessions"`
}

// UserStats aggregates one user's sessions inside the period.
type UserStats struct {
	UserID          string             `json:"user_id"`
	Username        string             `json:"username"`
	TotalDuration   int64              `json:"total_duration"`
	SessionCount    int                `json:"session_count"`
	AverageDuration float64            `json:"average_duration"`
	Favorites       []FavoriteActivity `json:"favorites"`
	SoloSessions    int                `json:"solo_sessions"`
	GroupSessions   int                `json:"group_sessions"`
	PeakHour        int                `json:"peak_hour"`
	PeakDay         int                `json:"peak_day"`
}

// ActivityStats aggregates one activity's sessions inside the period.
type ActivityStats struct {
	ActivityName  string `json:"activity_name"`
	ActivityType  int    `json:"activity_type"`
	TotalDuration int64  `json:"total_duration"`
	SessionCount  int    `json:"session_count"`
	UniqueUsers   int    `json:"unique_users"`
	PeakHour      int    `json:"peak_hour"`
	PeakDay       int    `json:"peak_day"`
}

// TemporalDistribution is the duration-weighted histogram over local start
// times: 24 hour buckets and 7 weekday buckets (0 = Sunday).
type TemporalDistribution struct {
	ByHour [24]int64 `json:"by_hour"`
	ByDay  [7]int64  `json:"by_day"`
}

// Summary is the headline block of a retrospective.
type Summary struct {
	TotalHours          float64 `json:"total_hours"`
	TotalSessions       int     `json:"total_sessions"`
	MostPopularActivity string  `json:"most_popular_activity"`
	MostActiveUser      string  `json:"most_active_user"`
	PeakHour            int     `json:"peak_hour"`
	PeakDay             int     `json:"peak_day"`
}

// Retrospective is the full statistical report for a period.
type Retrospective struct {
	Period      Period               `json:"period"`
	GeneratedAt int64                `json:"generated_at"`
	Summary     Summary              `json:"summary"`
	Users       []UserStats          `json:"users"`
	Activities  []ActivityStats      `json:"activities"`
	Temporal    TemporalDistribution `json:"temporal"`
}

// Stats computes retrospectives from the history log and live sessions.
type Stats struct {
	repo SessionRepository
	now  nowFunc
}

// NewStats constructs a Stats engine.
func NewStats(repo SessionRepository) *Stats {
	return &Stats{repo: repo, now: defaultNow}
}

// record is the common shape of a finished history entry and a live session
// measured up to now.
type record struct {
	userID       string
	username     string
	activityName string
	activityType int
	startedAt    int64
	duration     int64
	sessionType  SessionType
	live         bool
}

// GenerateRetrospective aggregates per-user and per-activity statistics plus
// the temporal histograms for the period. History entries are windowed by end
// timestamp; live sessions always contribute their elapsed time. Empty input
// produces a zero-valued report rather than an error.
func (s *Stats) GenerateRetrospective(ctx context.Context, period Period) (*Retrospective, error) {
	history, err := s.repo.History(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.AllActiveSessions(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	nowMillis := now.UnixMilli()
	cutoff := int64(0)
	if window := period.Window(); window > 0 {
		cutoff = nowMillis - window.Milliseconds()
	}

	records := make([]record, 0, len(history)+len(active))
	for _, entry := range history {
		if entry.EndedAt < cutoff {
			continue
		}
		records = append(records, record{
			userID:       entry.UserID,
			username:     entry.Username,
			activityName: entry.ActivityName,
			activityType: entry.ActivityType,
			startedAt:    entry.StartedAt,
			duration:     entry.Duration,
			sessionType:  entry.SessionType,
		})
	}
	for _, session := range active {
		records = append(records, record{
			userID:       session.UserID,
			username:     session.Username,
			activityName: session.ActivityName,
			activityType: session.ActivityType,
			startedAt:    session.StartedAt,
			duration:     nowMillis - session.StartedAt,
			live:         true,
		})
	}

	retro := &Retrospective{
		Period:      period,
		GeneratedAt: nowMillis,
		Summary: Summary{
			MostPopularActivity: "N/A",
			MostActiveUser:      "N/A",
		},
		Users:      []UserStats{},
		Activities: []ActivityStats{},
	}
	if len(records) == 0 {
		return retro, nil
	}

	type userAcc struct {
		stats     UserStats
		favorites map[activityKey]*FavoriteActivity
		favOrder  []activityKey
		hours     [24]int64
		days      [7]int64
	}
	type activityAcc struct {
		stats ActivityStats
		users map[string]struct{}
		hours [24]int64
		days  [7]int64
	}

	users := make(map[string]*userAcc)
	var userOrder []string
	activities := make(map[activityKey]*activityAcc)
	var activityOrder []activityKey

	var totalDuration int64

	for _, rec := range records {
		start := time.UnixMilli(rec.startedAt)
		hour := start.Hour()
		day := int(start.Weekday())
		akey := activityKey{rec.activityType, rec.activityName}

		ua, ok := users[rec.userID]
		if !ok {
			ua = &userAcc{
				stats:     UserStats{UserID: rec.userID, Username: rec.username},
				favorites: make(map[activityKey]*FavoriteActivity),
			}
			users[rec.userID] = ua
			userOrder = append(userOrder, rec.userID)
		}
		ua.stats.TotalDuration += rec.duration
		ua.stats.SessionCount++
		ua.hours[hour] += rec.duration
		ua.days[day] += rec.duration
		if !rec.live {
			if rec.sessionType == SessionGroup {
				ua.stats.GroupSessions++
			} else {
				ua.stats.SoloSessions++
			}
		}
		fav, ok := ua.favorites[akey]
		if !ok {
			fav = &FavoriteActivity{ActivityName: rec.activityName, ActivityType: rec.activityType}
			ua.favorites[akey] = fav
			ua.favOrder = append(ua.favOrder, akey)
		}
		fav.Duration += rec.duration
		fav.Sessions++

		aa, ok := activities[akey]
		if !ok {
			aa = &activityAcc{
				stats: ActivityStats{ActivityName: rec.activityName, ActivityType: rec.activityType},
				users: make(map[string]struct{}),
			}
			activities[akey] = aa
			activityOrder = append(activityOrder, akey)
		}
		aa.stats.TotalDuration += rec.duration
		aa.stats.SessionCount++
		aa.users[rec.userID] = struct{}{}
		aa.hours[hour] += rec.duration
		aa.days[day] += rec.duration

		retro.Temporal.ByHour[hour] += rec.duration
		retro.Temporal.ByDay[day] += rec.duration
		totalDuration += rec.duration
	}

	for _, id := range userOrder {
		ua := users[id]
		ua.stats.AverageDuration = float64(ua.stats.TotalDuration) / float64(ua.stats.SessionCount)
		ua.stats.PeakHour = peakIndex(ua.hours[:])
		ua.stats.PeakDay = peakIndex(ua.days[:])
		ua.stats.Favorites = topFavorites(ua.favorites, ua.favOrder, 5)
		retro.Users = append(retro.Users, ua.stats)
	}
	sort.SliceStable(retro.Users, func(i, j int) bool {
		return retro.Users[i].TotalDuration > retro.Users[j].TotalDuration
	})

	for _, key := range activityOrder {
		aa := activities[key]
		aa.stats.UniqueUsers = len(aa.users)
		aa.stats.PeakHour = peakIndex(aa.hours[:])
		aa.stats.PeakDay = peakIndex(aa.days[:])
		retro.Activities = append(retro.Activities, aa.stats)
	}
	sort.SliceStable(retro.Activities, func(i, j int) bool {
		return retro.Activities[i].TotalDuration > retro.Activities[j].TotalDuration
	})

	retro.Summary.TotalHours = float64(totalDuration) / 3.6e6
	retro.Summary.TotalSessions = len(records)
	retro.Summary.MostPopularActivity = retro.Activities[0].ActivityName
	retro.Summary.MostActiveUser = retro.Users[0].Username
	retro.Summary.PeakHour = peakIndex(retro.Temporal.ByHour[:])
	retro.Summary.PeakDay = peakIndex(retro.Temporal.ByDay[:])

	return retro, nil
}

type activityKey struct {
	activityType int
	activityName string
}

// peakIndex returns the first index holding the maximum value.
func peakIndex(buckets []int64) int {
	peak := 0
	for i, v := range buckets {
		if v > buckets[peak] {
			peak = i
		}
	}
	return peak
}

// topFavorites orders a user's activities by duration, ties broken by first
// encounter, and keeps the top n.
func topFavorites(favorites map[activityKey]*FavoriteActivity, order []activityKey, n int) []FavoriteActivity {
	out := make([]FavoriteActivity, 0, len(order))
	for _, key := range order {
		out = append(out, *favorites[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Duration > out[j].Duration
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
