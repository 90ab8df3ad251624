package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) TelegramConfig {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = 2 * time.Second
	httpCfg.RateLimit = 0
	return TelegramConfig{APIURL: url, BotToken: "secret-token", ChatID: "-100", HTTP: httpCfg}
}

func TestTelegramNotifier_Send(t *testing.T) {
	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	n := NewTelegramNotifier(testConfig(server.URL), nil)
	defer n.Close()

	require.NoError(t, n.Send(context.Background(), "Tips: 3 Wins: 1"))
	assert.Equal(t, "/botsecret-token/sendMessage", gotPath)
	assert.Equal(t, "-100", gotChat)
	assert.Equal(t, "Tips: 3 Wins: 1", gotText)
}

func TestTelegramNotifier_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	err := NewTelegramNotifier(testConfig(server.URL), nil).Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramNotifier_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := NewTelegramNotifier(testConfig(server.URL), nil).Send(context.Background(), "hi")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRateLimitedHTTPClient_CircuitBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 0
	cfg.CircuitBreakerMax = 2
	client := NewRateLimitedHTTPClient(cfg, nil)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.Post(ctx, server.URL, "text/plain", nil)
		require.Error(t, err)
	}
	_, err := client.Post(ctx, server.URL, "text/plain", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	client.Reset()
	_, err = client.Post(ctx, server.URL, "text/plain", nil)
	assert.NotContains(t, err.Error(), "circuit breaker open")
}

func TestRateLimitedHTTPClient_CircuitRecovers(t *testing.T) {
	var hits atomic.Int32
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 0
	cfg.CircuitBreakerMax = 3
	cfg.CircuitCooldown = time.Hour
	client := NewRateLimitedHTTPClient(cfg, nil)
	clock := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	client.now = func() time.Time { return clock }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.Post(ctx, server.URL, "text/plain", nil)
		require.Error(t, err)
		clock = clock.Add(24 * time.Hour)
	}
	assert.Equal(t, int32(3), hits.Load())

	healthy.Store(true)

	// still inside the cooldown
	clock = clock.Add(-23*time.Hour - 30*time.Minute)
	_, err := client.Post(ctx, server.URL, "text/plain", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(3), hits.Load())

	clock = clock.Add(24 * time.Hour)
	resp, err := client.Post(ctx, server.URL, "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()

	clock = clock.Add(time.Minute)
	resp, err = client.Post(ctx, server.URL, "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(5), hits.Load())
}

func TestRateLimitedHTTPClient_FailedTrialReopens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 0
	cfg.CircuitBreakerMax = 1
	cfg.CircuitCooldown = time.Minute
	client := NewRateLimitedHTTPClient(cfg, nil)
	clock := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return clock }

	ctx := context.Background()
	_, err := client.Post(ctx, server.URL, "text/plain", nil)
	require.Error(t, err)

	clock = clock.Add(2 * time.Minute)
	_, err = client.Post(ctx, server.URL, "text/plain", nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "circuit breaker open")

	_, err = client.Post(ctx, server.URL, "text/plain", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(2), hits.Load())
}

func TestNoopNotifier(t *testing.T) {
	assert.ErrorIs(t, NoopNotifier{}.Send(context.Background(), "x"), ErrDisabled)
}
