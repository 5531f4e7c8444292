package maplib

import (
	"encoding/json"
	"sync"
	"time"
)

// UsageStats tracks how a provider was used: when it was used last
// time, how many lookups ended with each outcome and when its database
// was reloaded.
type UsageStats struct {
	Name string

	mutex         sync.Mutex
	lastUsed      time.Time
	lastUpdated   time.Time
	successCount  uint64
	notFoundCount uint64
	failureCount  uint64
}

// Used registers a new outcome.
func (u *UsageStats) Used(reason FailureReason) {
	now := time.Now()

	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.lastUsed = now

	switch reason {
	case FailureNone:
		u.successCount++
	case FailureNotFound:
		u.notFoundCount++
	default:
		u.failureCount++
	}
}

// Updated registers a reload of the provider database.
func (u *UsageStats) Updated() {
	now := time.Now()

	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.lastUpdated = now
}

func (u *UsageStats) MarshalJSON() ([]byte, error) {
	var lastUsedTime, lastUpdatedTime int64

	u.mutex.Lock()

	if !u.lastUsed.IsZero() {
		lastUsedTime = u.lastUsed.Unix()
	}

	if !u.lastUpdated.IsZero() {
		lastUpdatedTime = u.lastUpdated.Unix()
	}

	rawStruct := struct {
		Name          string `json:"name"`
		LastUsed      int64  `json:"last_used"`
		LastUpdated   int64  `json:"last_updated"`
		SuccessCount  uint64 `json:"success_count"`
		NotFoundCount uint64 `json:"not_found_count"`
		FailureCount  uint64 `json:"failure_count"`
	}{
		Name:          u.Name,
		LastUsed:      lastUsedTime,
		LastUpdated:   lastUpdatedTime,
		SuccessCount:  u.successCount,
		NotFoundCount: u.notFoundCount,
		FailureCount:  u.failureCount,
	}

	u.mutex.Unlock()

	return json.Marshal(&rawStruct)
}
