package ratelimit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/log"
)

// KVRESTStore speaks a path-based REST dialect against a generic
// key-value HTTP service: GET {base}/get/{key} to read and
// POST {base}/set/{key} with {"value": ..., "ex": ttlSeconds} to write.
//
// The increment emulation and its accepted lost-update race are the
// same as RedisRESTStore's.
type KVRESTStore struct {
	baseURL string
	token   string
	client  *http.Client
	now     func() time.Time
}

func NewKVRESTStore(baseURL, token string, timeout time.Duration, now func() time.Time) *KVRESTStore {
	return &KVRESTStore{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		now:     now,
	}
}

func (s *KVRESTStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("get", key), nil)
	if err != nil {
		return Entry{}, false, errors.WithMessage(err, "build request")
	}

	resp, err := s.do(req)
	if err != nil {
		return Entry{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Entry{}, false, nil
	}
	if err := checkStatus(resp, "kv rest"); err != nil {
		return Entry{}, false, err
	}

	var envelope struct {
		Result *string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Entry{}, false, errors.WithMessage(err, "decode response")
	}
	if envelope.Result == nil {
		return Entry{}, false, nil
	}

	entry, err := decodeEntry(*envelope.Result)
	if err != nil {
		return Entry{}, false, err
	}
	if !entry.live(s.now()) {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (s *KVRESTStore) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	value, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	ttlSeconds := int64(ttl / time.Second)
	if ttl%time.Second != 0 {
		ttlSeconds++
	}
	body, err := json.Marshal(map[string]any{
		"value": value,
		"ex":    ttlSeconds,
	})
	if err != nil {
		return errors.WithMessage(err, "marshal set body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint("set", key), bytes.NewReader(body))
	if err != nil {
		return errors.WithMessage(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp, "kv rest")
}

func (s *KVRESTStore) Increment(ctx context.Context, key string, window time.Duration) (Entry, error) {
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

func (s *KVRESTStore) endpoint(op, key string) string {
	return s.baseURL + "/" + op + "/" + url.PathEscape(key)
}

func (s *KVRESTStore) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.client.Do(req)
	if err != nil {
		log.Logger().Error("kv rest request failed", zap.Error(err))
		return nil, errors.WithMessage(err, "execute request")
	}
	return resp, nil
}

func checkStatus(resp *http.Response, store string) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	log.Logger().Error("rate limit store returned unexpected status",
		zap.String("store", store),
		zap.Int("status", resp.StatusCode))
	return errors.Errorf("%s: unexpected status %d", store, resp.StatusCode)
}
