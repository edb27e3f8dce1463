// Package ratelimit implements fixed-window rate limiting over
// interchangeable storage backends. A single Limiter owns one Store and
// decides, per identifier and preset, whether a request may proceed.
//
// Backends range from a process-local map (development fallback) to
// network key-value services shared by every running instance. The
// Limiter fails open: if the backend is unreachable the request is
// allowed and the outage is logged, never surfaced to the caller.
package ratelimit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const keyNamespace = "ratelimit"

// Entry is the persisted counter state for one (preset, identifier)
// pair within the current window.
type Entry struct {
	Count     int
	ResetTime time.Time
}

func (e Entry) live(now time.Time) bool {
	return e.ResetTime.After(now)
}

// Store is the contract every backend implements.
//
// Get must hide entries whose ResetTime has passed (lazy expiry): an
// expired entry is reported as absent, never as a zero count. Set
// unconditionally overwrites and arranges for the entry to disappear
// after ttl. Increment creates a fresh entry (count=1,
// resetTime=now+window) when no live entry exists, otherwise bumps the
// count and keeps ResetTime unchanged.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
	Increment(ctx context.Context, key string, window time.Duration) (Entry, error)
}

// storageKey namespaces counters so the same identifier never collides
// across presets.
func storageKey(preset PresetName, identifier string) string {
	return keyNamespace + ":" + string(preset) + ":" + identifier
}

// entryPayload is the wire form shared by the REST backends. ResetTime
// travels as unix milliseconds.
type entryPayload struct {
	Count     int   `json:"count"`
	ResetTime int64 `json:"resetTime"`
}

func encodeEntry(e Entry) (string, error) {
	raw, err := json.Marshal(entryPayload{Count: e.Count, ResetTime: e.ResetTime.UnixMilli()})
	if err != nil {
		return "", errors.WithMessage(err, "marshal rate limit entry")
	}
	return string(raw), nil
}

func decodeEntry(raw string) (Entry, error) {
	var p entryPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Entry{}, errors.WithMessage(err, "unmarshal rate limit entry")
	}
	return Entry{Count: p.Count, ResetTime: time.UnixMilli(p.ResetTime)}, nil
}
