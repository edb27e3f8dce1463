package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/log"
)

// Result is the outward-facing decision for one check. RetryAfter is
// zero when the request is allowed; when denied it is the time until
// the window resets, rounded up to whole seconds.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter coordinates rate limit decisions against a single Store. It
// is the error-swallowing boundary: Check and Status never fail, they
// fail open. During a backend outage requests are allowed and the
// outage is logged, trading temporary loss of abuse protection for
// availability.
type Limiter struct {
	store Store
	now   func() time.Time
}

func NewLimiter(store Store, now func() time.Time) *Limiter {
	return &Limiter{
		store: store,
		now:   now,
	}
}

// Check counts the current request against the preset's window and
// reports whether it may proceed. It is intended to run before any
// costly work; callers branch on Result.Allowed.
func (l *Limiter) Check(ctx context.Context, identifier string, preset PresetName) Result {
	p := presetByName(preset)
	key := storageKey(preset, identifier)

	entry, err := l.store.Increment(ctx, key, p.Window)
	if err != nil {
		log.Logger().Error("rate limit store unavailable, allowing request",
			zap.String("key", key),
			zap.Error(err))
		return l.failOpen(p)
	}
	return l.resultFor(p, entry)
}

// Status reports the current counter without consuming quota. An
// identifier with no live entry reads as a full window of remaining
// quota.
func (l *Limiter) Status(ctx context.Context, identifier string, preset PresetName) Result {
	p := presetByName(preset)
	key := storageKey(preset, identifier)

	entry, found, err := l.store.Get(ctx, key)
	if err != nil {
		log.Logger().Error("rate limit store unavailable, reporting open quota",
			zap.String("key", key),
			zap.Error(err))
		return l.failOpen(p)
	}
	if !found {
		return Result{
			Allowed:   true,
			Remaining: p.MaxRequests,
			ResetTime: l.now().Add(p.Window),
		}
	}
	return l.resultFor(p, entry)
}

// Cleanup reclaims expired entries on backends that need it. Network
// backends expire natively, so this is a no-op for them.
func (l *Limiter) Cleanup() {
	if sweeper, ok := l.store.(interface{ Cleanup() }); ok {
		sweeper.Cleanup()
	}
}

func (l *Limiter) resultFor(p Preset, entry Entry) Result {
	remaining := p.MaxRequests - entry.Count
	if remaining < 0 {
		remaining = 0
	}

	result := Result{
		Allowed:   entry.Count <= p.MaxRequests,
		Remaining: remaining,
		ResetTime: entry.ResetTime,
	}
	if !result.Allowed {
		result.RetryAfter = ceilSeconds(entry.ResetTime.Sub(l.now()))
	}
	return result
}

func (l *Limiter) failOpen(p Preset) Result {
	return Result{
		Allowed:   true,
		Remaining: p.MaxRequests - 1,
		ResetTime: l.now().Add(p.Window),
	}
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	seconds := d / time.Second
	if d%time.Second != 0 {
		seconds++
	}
	return seconds * time.Second
}
