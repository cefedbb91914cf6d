// Package store provides the key-value persistence layer for session state
// and the activity history log.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by KV.Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// KV is the pluggable storage abstraction. Values are JSON documents keyed by
// string; implementations do not interpret them.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Key scheme shared by every driver.
const (
	keyAllActive  = "all-active-sessions"
	keyHistoryAll = "activity-history:all"
)

func groupKey(activityType int, activityName string) string {
	return fmt.Sprintf("sessions:%d:%s", activityType, activityName)
}

func userKey(userID string) string {
	return fmt.Sprintf("user-sessions:%s", userID)
}
