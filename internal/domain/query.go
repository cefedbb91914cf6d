package domain

import (
	"context"
	"sort"
)

// Query reads active and historical sessions and aggregates them per
// activity for a lookback window.
type Query struct {
	repo SessionRepository
	now  nowFunc
}

// NewQuery constructs a Query.
func NewQuery(repo SessionRepository) *Query {
	return &Query{repo: repo, now: defaultNow}
}

// ActivitiesByPeriod groups sessions by activity identity inside the period
// window: history entries that ended within the window plus active sessions
// that started within it. Each group sums completed durations and the live
// elapsed time of active sessions. Results are ordered by total duration,
// longest first.
func (q *Query) ActivitiesByPeriod(ctx context.Context, period Period) ([]ActivityGroup, error) {
	history, err := q.repo.History(ctx)
	if err != nil {
		return nil, err
	}
	active, err := q.repo.AllActiveSessions(ctx)
	if err != nil {
		return nil, err
	}

	nowMillis := q.now().UnixMilli()
	cutoff := int64(0)
	if window := period.Window(); window > 0 {
		cutoff = nowMillis - window.Milliseconds()
	}

	type key struct {
		activityType int
		activityName string
	}
	groups := make(map[key]*ActivityGroup)
	var order []key

	upsert := func(k key) *ActivityGroup {
		if g, ok := groups[k]; ok {
			return g
		}
		g := &ActivityGroup{ActivityName: k.activityName, ActivityType: k.activityType}
		groups[k] = g
		order = append(order, k)
		return g
	}

	for _, entry := range history {
		if entry.EndedAt < cutoff {
			continue
		}
		g := upsert(key{entry.ActivityType, entry.ActivityName})
		g.TotalDuration += entry.Duration
		g.SessionCount++
	}

	for _, session := range active {
		if session.StartedAt < cutoff {
			continue
		}
		g := upsert(key{session.ActivityType, session.ActivityName})
		g.TotalDuration += nowMillis - session.StartedAt
		g.SessionCount++
		g.ActiveUsers++
	}

	out := make([]ActivityGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalDuration > out[j].TotalDuration
	})
	return out, nil
}
