package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/cogniflow/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Persistence.Type = "memory"
	cfg.Telemetry.Enabled = false
	cfg.Server.RateLimitRPS = 0

	s, err := NewServer(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.close() })
	return s
}

func TestServer_ToolRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := httptest.NewServer(s.handler(ctx))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/tools/memory_store", "application/json",
		strings.NewReader(`{"content":"cache warm keys","relevance":0.8}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Contains(t, body.Data["item_id"], "memory-")

	resp, err = http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/v1/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := httptest.NewServer(s.handler(ctx))
	defer api.Close()
	resp, err := http.Post(api.URL+"/v1/tools/cognitive_state", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	m := httptest.NewServer(s.metricsHandler())
	defer m.Close()
	resp, err = http.Get(m.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, `cogniflow_http_requests_total{method="POST",path="/v1/tools/:name",status="2xx"} 1`)
	assert.Contains(t, text, `cogniflow_tool_calls_total`)
	assert.Contains(t, text, "go_goroutines")
}
