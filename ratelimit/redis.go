package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/log"
)

// RedisStore counts on a directly reachable Redis using an INCR+PTTL
// pipeline, so the increment is atomic: concurrent instances never lose
// updates, unlike the REST stores' read-modify-write emulation.
//
// The counter is stored as a bare integer with a native TTL; the window
// end is reconstructed from the key's remaining TTL.
type RedisStore struct {
	cli redis.UniversalClient
	now func() time.Time
}

func NewRedisStore(cli redis.UniversalClient, now func() time.Time) *RedisStore {
	return &RedisStore{
		cli: cli,
		now: now,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	p := s.cli.Pipeline()
	getResult := p.Get(ctx, key)
	ttlResult := p.PTTL(ctx, key)

	if _, err := p.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		log.Logger().Error("failed to read rate limit key", zap.String("key", key), zap.Error(err))
		return Entry{}, false, errors.WithMessage(err, "exec get pipeline")
	}
	if errors.Is(getResult.Err(), redis.Nil) {
		return Entry{}, false, nil
	}

	count, err := strconv.Atoi(getResult.Val())
	if err != nil {
		return Entry{}, false, errors.WithMessage(err, "parse counter value")
	}

	ttl := ttlResult.Val()
	if ttl < 0 {
		// Key raced away or has no expiry left to derive a window from.
		return Entry{}, false, nil
	}
	return Entry{Count: count, ResetTime: s.now().Add(ttl)}, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	err := s.cli.Set(ctx, key, entry.Count, ttl).Err()
	if err != nil {
		log.Logger().Error("failed to write rate limit key", zap.String("key", key), zap.Error(err))
		return errors.WithMessage(err, "set counter")
	}
	return nil
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Entry, error) {
	p := s.cli.Pipeline()
	incrResult := p.Incr(ctx, key)
	ttlResult := p.PTTL(ctx, key)

	if _, err := p.Exec(ctx); err != nil {
		log.Logger().Error("failed to increment rate limit key", zap.String("key", key), zap.Error(err))
		return Entry{}, errors.WithMessage(err, "exec increment pipeline")
	}

	ttl := ttlResult.Val()
	if ttl < 0 {
		// First increment of the window, or the key predates its
		// expiry being set. Start a fresh window.
		ttl = window
		if err := s.cli.PExpire(ctx, key, window).Err(); err != nil {
			log.Logger().Error("failed to set rate limit key expiry", zap.String("key", key), zap.Error(err))
			return Entry{}, errors.WithMessage(err, "set expiry")
		}
	}

	return Entry{
		Count:     int(incrResult.Val()),
		ResetTime: s.now().Add(ttl),
	}, nil
}
