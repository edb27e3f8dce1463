package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedisREST emulates the command-array REST dialect: a single POST
// endpoint accepting ["GET", key] and ["SET", key, value, "PX", ttl].
type fakeRedisREST struct {
	mu     sync.Mutex
	values map[string]string
	expiry map[string]time.Time
	now    func() time.Time
	token  string
}

func newFakeRedisREST(token string, now func() time.Time) *fakeRedisREST {
	return &fakeRedisREST{
		values: make(map[string]string),
		expiry: make(map[string]time.Time),
		now:    now,
		token:  token,
	}
}

func (f *fakeRedisREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var args []any
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil || len(args) < 2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	command, _ := args[0].(string)
	key, _ := args[1].(string)

	switch command {
	case "GET":
		value, ok := f.values[key]
		if !ok || f.now().After(f.expiry[key]) {
			_ = json.NewEncoder(w).Encode(map[string]any{"result": nil})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": value})
	case "SET":
		value, _ := args[2].(string)
		ttlMillis, _ := args[4].(float64)
		f.values[key] = value
		f.expiry[key] = f.now().Add(time.Duration(ttlMillis) * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": "OK"})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func TestRedisRESTStore_Increment(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	server := httptest.NewServer(newFakeRedisREST("test-token", clock))
	defer server.Close()

	store := NewRedisRESTStore(server.URL, "test-token", time.Second, clock)
	ctx := context.Background()

	entry, err := store.Increment(ctx, "ratelimit:contact:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
	assert.Equal(t, now.Add(time.Minute).UnixMilli(), entry.ResetTime.UnixMilli())

	resetTime := entry.ResetTime
	for i := 2; i <= 6; i++ {
		entry, err = store.Increment(ctx, "ratelimit:contact:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, entry.Count)
		assert.Equal(t, resetTime.UnixMilli(), entry.ResetTime.UnixMilli())
	}

	// A fresh window starts once the entry expires.
	now = now.Add(61 * time.Second)

	entry, err = store.Increment(ctx, "ratelimit:contact:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
	assert.Equal(t, now.Add(time.Minute).UnixMilli(), entry.ResetTime.UnixMilli())
}

func TestRedisRESTStore_GetHidesExpiredEntries(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	fake := newFakeRedisREST("test-token", clock)
	server := httptest.NewServer(fake)
	defer server.Close()

	store := NewRedisRESTStore(server.URL, "test-token", time.Second, clock)
	ctx := context.Background()

	err := store.Set(ctx, "key", Entry{Count: 2, ResetTime: now.Add(30 * time.Second)}, 30*time.Second)
	require.NoError(t, err)

	entry, found, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, entry.Count)

	// The fake still holds the value, but the entry's reset time has
	// passed: the store must report it as absent.
	now = now.Add(31 * time.Second)
	fake.mu.Lock()
	fake.expiry["key"] = now.Add(time.Hour)
	fake.mu.Unlock()

	_, found, err = store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisRESTStore_ErrorsOnUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := NewRedisRESTStore(server.URL, "test-token", time.Second, time.Now)

	_, err := store.Increment(context.Background(), "key", time.Minute)
	assert.Error(t, err)

	_, _, err = store.Get(context.Background(), "key")
	assert.Error(t, err)
}

func TestRedisRESTStore_ErrorsWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	store := NewRedisRESTStore(server.URL, "test-token", time.Second, time.Now)

	_, err := store.Increment(context.Background(), "key", time.Minute)
	assert.Error(t, err)
}
