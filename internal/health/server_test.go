package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandleHealth(t *testing.T) {
	c := NewChecker(Config{ServiceName: "tipping-monster", Version: "1.2.3"})
	rec := httptest.NewRecorder()
	c.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHandleReady(t *testing.T) {
	var failing error
	c := NewChecker(Config{
		ServiceName: "tipping-monster",
		Checks: map[string]Pinger{
			"repository": pingFunc(func(context.Context) error { return failing }),
			"unset":      nil,
		},
	})

	probe := func() (int, ReadyResponse) {
		rec := httptest.NewRecorder()
		c.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		var resp ReadyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return rec.Code, resp
	}

	code, resp := probe()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", resp.Checks["service"])

	c.SetReady(true)
	code, resp = probe()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Checks["repository"])
	assert.NotContains(t, resp.Checks, "unset")

	failing = errors.New("connection refused")
	code, resp = probe()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, resp.Checks["repository"], "connection refused")
}
