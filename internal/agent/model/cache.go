package model

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheEntryUnreadable marks a stored document that no longer decodes.
var ErrCacheEntryUnreadable = errors.New("cache entry unreadable")

// CacheEntry is one stored upstream chart response. Entries are written once
// and never mutated.
type CacheEntry struct {
	ID          string          `json:"_id"`
	DOB         string          `json:"dob"`
	TOB         string          `json:"tob"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
	ChartType   ChartType       `json:"chart_type"`
	APIResponse json.RawMessage `json:"api_response"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ChartCacheStore persists CacheEntry documents keyed by content hash.
type ChartCacheStore interface {
	// Get returns the entry for id; found is false on a miss.
	Get(ctx context.Context, id string) (entry CacheEntry, found bool, err error)

	// Put inserts the entry unless one with the same id already exists.
	Put(ctx context.Context, entry CacheEntry) error

	// Delete removes the entry for id; a missing id is not an error.
	Delete(ctx context.Context, id string) error
}
