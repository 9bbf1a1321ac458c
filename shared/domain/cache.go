package domain

import "time"

// CacheEntry is one persisted cache record. Value holds JSON.
type CacheEntry struct {
	Key       string
	Type      string
	Value     []byte
	ExpiresAt *time.Time
}

func (e CacheEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}
