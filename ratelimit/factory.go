package ratelimit

import (
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/internal/config"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/log"
)

// NewStore selects exactly one backend from the configured credentials.
// Priority: direct Redis (atomic increments), then Redis-REST, then
// KV-REST, then the in-process fallback.
func NewStore(cfg config.StoreConfig) Store {
	switch {
	case cfg.Redis.Configured():
		cli := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Timeout,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		})
		return NewRedisStore(cli, time.Now)
	case cfg.RedisREST.Configured():
		return NewRedisRESTStore(cfg.RedisREST.URL, cfg.RedisREST.Token, cfg.Timeout, time.Now)
	case cfg.KVREST.Configured():
		return NewKVRESTStore(cfg.KVREST.URL, cfg.KVREST.Token, cfg.Timeout, time.Now)
	default:
		return NewMemoryStore(time.Now)
	}
}

var (
	defaultMu      sync.Mutex
	defaultLimiter *Limiter
)

// Default returns a process-wide Limiter built once from the
// environment. Prefer constructing a Limiter explicitly at the
// composition root (see cmd/server); Default exists for hosts that
// cannot thread one through.
func Default() *Limiter {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLimiter == nil {
		cfg, err := config.Load()
		if err != nil {
			log.Logger().Error("invalid rate limit configuration, falling back to memory store", zap.Error(err))
			cfg = config.Config{}
		}
		defaultLimiter = NewLimiter(NewStore(cfg.Store), time.Now)
	}
	return defaultLimiter
}

// ResetDefault drops the memoized default so the next Default call
// re-reads the environment. Test isolation hook.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLimiter = nil
}
