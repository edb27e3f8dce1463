package ratelimit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/log"
)

// RedisRESTStore talks to a Redis-compatible REST endpoint. Every
// command is a single bearer-authenticated POST carrying the command as
// a JSON array, e.g. ["GET", key] or ["SET", key, value, "PX", ttl].
//
// Increment is a read-modify-write over two round-trips, not an atomic
// operation: two instances can both read count=N and both write N+1,
// losing one increment. That undercount is accepted; approximate
// counting is enough for abuse deterrence and keeps the store
// compatible with plain REST key-value services.
type RedisRESTStore struct {
	url    string
	token  string
	client *http.Client
	now    func() time.Time
}

func NewRedisRESTStore(url, token string, timeout time.Duration, now func() time.Time) *RedisRESTStore {
	return &RedisRESTStore{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
		now:    now,
	}
}

func (s *RedisRESTStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	result, err := s.command(ctx, "GET", key)
	if err != nil {
		return Entry{}, false, err
	}
	if len(result) == 0 || string(result) == "null" {
		return Entry{}, false, nil
	}

	var value string
	if err := json.Unmarshal(result, &value); err != nil {
		return Entry{}, false, errors.WithMessage(err, "unexpected GET result shape")
	}
	entry, err := decodeEntry(value)
	if err != nil {
		return Entry{}, false, err
	}
	if !entry.live(s.now()) {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (s *RedisRESTStore) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	value, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	_, err = s.command(ctx, "SET", key, value, "PX", ttl.Milliseconds())
	return err
}

func (s *RedisRESTStore) Increment(ctx context.Context, key string, window time.Duration) (Entry, error) {
	entry, found, err := s.Get(ctx, key)
	if err != nil {
		return Entry{}, err
	}

	now := s.now()
	if !found {
		entry = Entry{Count: 1, ResetTime: now.Add(window)}
		if err := s.Set(ctx, key, entry, window); err != nil {
			return Entry{}, err
		}
		return entry, nil
	}

	entry.Count++
	if err := s.Set(ctx, key, entry, entry.ResetTime.Sub(now)); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// command posts one Redis command and returns the raw "result" field.
func (s *RedisRESTStore) command(ctx context.Context, args ...any) (json.RawMessage, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, errors.WithMessage(err, "marshal command")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WithMessage(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Logger().Error("redis rest request failed", zap.Error(err))
		return nil, errors.WithMessage(err, "execute command")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Logger().Error("redis rest returned unexpected status",
			zap.Int("status", resp.StatusCode))
		return nil, errors.Errorf("redis rest: unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.WithMessage(err, "decode response")
	}
	return envelope.Result, nil
}
