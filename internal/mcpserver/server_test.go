package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amkisko/scout-apm-mcp/internal/scout"
	"github.com/amkisko/scout-apm-mcp/internal/timeutil"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) *Server {
	t.Helper()

	backend := httptest.NewServer(handler)
	t.Cleanup(backend.Close)

	client, err := scout.NewClient(scout.ClientOptions{
		APIKey:  "test-key",
		BaseURL: backend.URL,
	})
	require.NoError(t, err)

	return NewServer(client, ServerOptions{Logger: zap.NewNop()})
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestHandleListApps(t *testing.T) {
	s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apps", r.URL.Path)
		_, _ = w.Write([]byte(`{"results": {"apps": [{"id": 1, "name": "web"}]}}`))
	})

	result, _, err := s.handleListApps(context.Background(), nil, listAppsInput{})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var apps []map[string]any
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &apps))
	require.Len(t, apps, 1)
	assert.Equal(t, "web", apps[0]["name"])
}

func TestHandlerConvertsClientErrorToToolError(t *testing.T) {
	s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"header": {"status": {"code": 401, "message": "bad key"}}}`))
	})

	result, _, err := s.handleListApps(context.Background(), nil, listAppsInput{})
	require.NoError(t, err, "tool failures must not become protocol errors")
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "bad key")
}

func TestHandleGetMetricRejectsBadTypeWithoutRequest(t *testing.T) {
	requested := false
	s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requested = true
	})

	result, _, err := s.handleGetMetric(context.Background(), nil, metricInput{
		AppID:      1,
		MetricType: "cpu_cycles",
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "cpu_cycles")
	assert.False(t, requested)
}

func TestHandleGetMetricWithRangeToken(t *testing.T) {
	var query string
	s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"results": {"series": {}}}`))
	})

	result, _, err := s.handleGetMetric(context.Background(), nil, metricInput{
		AppID:      1,
		MetricType: "response_time",
		Range:      "1day",
		To:         "2025-01-15T12:00:00Z",
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, query, "from=2025-01-14T12%3A00%3A00Z")
	assert.Contains(t, query, "to=2025-01-15T12%3A00%3A00Z")
}

func TestHandleGetEndpointTracesStaleRange(t *testing.T) {
	s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	from := timeutil.FormatTime(time.Now().UTC().Add(-10 * 24 * time.Hour))
	result, _, err := s.handleGetEndpointTraces(context.Background(), nil, endpointTracesInput{
		AppID:      1,
		EndpointID: "ABC",
		From:       from,
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "retention window")
}

func TestHandleParseDashboardURL(t *testing.T) {
	s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("runs locally, no request expected")
	})

	result, _, err := s.handleParseDashboardURL(context.Background(), nil, parseURLInput{
		URL: "https://scoutapm.com/apps/123/endpoints/ABC/trace/456",
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &parsed))
	assert.Equal(t, "trace", parsed["url_type"])
	assert.Equal(t, float64(123), parsed["app_id"])
	assert.Equal(t, float64(456), parsed["trace_id"])
}

func TestHandleDecodeEndpointID(t *testing.T) {
	s := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("runs locally, no request expected")
	})

	result, _, err := s.handleDecodeEndpointID(context.Background(), nil, decodeEndpointInput{
		EndpointID: "VXNlcnNDb250cm9sbGVyL2luZGV4", // "UsersController/index"
	})
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &decoded))
	assert.Equal(t, "UsersController/index", decoded["decoded"])
}

func TestResolveRangeTokenWinsOverFrom(t *testing.T) {
	rng, err := resolveRange("1day", "2025-01-01T00:00:00Z", "2025-01-15T12:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, rng.From)
	require.NotNil(t, rng.To)
	assert.Equal(t, "2025-01-14T12:00:00Z", timeutil.FormatTime(*rng.From))
}

func TestResolveRangeExplicitBounds(t *testing.T) {
	rng, err := resolveRange("", "2025-01-14T12:00:00Z", "2025-01-15T12:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, rng.From)
	require.NotNil(t, rng.To)
	assert.Equal(t, 24*time.Hour, rng.To.Sub(*rng.From))
}

func TestResolveRangeEmptyInputs(t *testing.T) {
	rng, err := resolveRange("", "", "")
	require.NoError(t, err)
	assert.Nil(t, rng.From)
	assert.Nil(t, rng.To)
}

func TestResolveRangeBadInputs(t *testing.T) {
	_, err := resolveRange("30weeks", "", "")
	require.Error(t, err)

	_, err = resolveRange("", "not-a-time", "")
	require.Error(t, err)
}
