package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/amkisko/scout-apm-mcp/internal/scout"
	"github.com/amkisko/scout-apm-mcp/internal/timeutil"
	"github.com/amkisko/scout-apm-mcp/internal/urlparse"
)

// --- Tool inputs ---

type listAppsInput struct{}

type openAPISchemaInput struct{}

type appInput struct {
	AppID int `json:"app_id" jsonschema:"ScoutAPM application id"`
}

type metricInput struct {
	AppID      int    `json:"app_id" jsonschema:"ScoutAPM application id"`
	MetricType string `json:"metric_type" jsonschema:"Metric type: apdex, errors, queue_time, response_time, response_time_95th or throughput"`
	From       string `json:"from,omitempty" jsonschema:"Range start as ISO-8601 (e.g. 2025-01-15T12:00:00Z)"`
	To         string `json:"to,omitempty" jsonschema:"Range end as ISO-8601; defaults to now when a range token is given"`
	Range      string `json:"range,omitempty" jsonschema:"Relative range token such as 30min, 3hrs or 7days; overrides from"`
}

type endpointInput struct {
	AppID      int    `json:"app_id" jsonschema:"ScoutAPM application id"`
	EndpointID string `json:"endpoint_id" jsonschema:"Opaque endpoint id as shown in dashboard URLs"`
}

type endpointMetricInput struct {
	AppID      int    `json:"app_id" jsonschema:"ScoutAPM application id"`
	EndpointID string `json:"endpoint_id" jsonschema:"Opaque endpoint id"`
	MetricType string `json:"metric_type" jsonschema:"Metric type: apdex, errors, queue_time, response_time, response_time_95th or throughput"`
	From       string `json:"from,omitempty" jsonschema:"Range start as ISO-8601"`
	To         string `json:"to,omitempty" jsonschema:"Range end as ISO-8601"`
	Range      string `json:"range,omitempty" jsonschema:"Relative range token such as 3hrs; overrides from"`
}

type endpointTracesInput struct {
	AppID      int    `json:"app_id" jsonschema:"ScoutAPM application id"`
	EndpointID string `json:"endpoint_id" jsonschema:"Opaque endpoint id"`
	From       string `json:"from,omitempty" jsonschema:"Range start as ISO-8601; must be within the last 7 days"`
	To         string `json:"to,omitempty" jsonschema:"Range end as ISO-8601"`
	Range      string `json:"range,omitempty" jsonschema:"Relative range token such as 3hrs; overrides from"`
}

type traceInput struct {
	AppID   int `json:"app_id" jsonschema:"ScoutAPM application id"`
	TraceID int `json:"trace_id" jsonschema:"Trace id"`
}

type errorGroupsInput struct {
	AppID int    `json:"app_id" jsonschema:"ScoutAPM application id"`
	From  string `json:"from,omitempty" jsonschema:"Range start as ISO-8601"`
	To    string `json:"to,omitempty" jsonschema:"Range end as ISO-8601"`
	Range string `json:"range,omitempty" jsonschema:"Relative range token such as 7days; overrides from"`
}

type errorGroupInput struct {
	AppID        int `json:"app_id" jsonschema:"ScoutAPM application id"`
	ErrorGroupID int `json:"error_group_id" jsonschema:"Error group id"`
}

type insightTypeInput struct {
	AppID       int    `json:"app_id" jsonschema:"ScoutAPM application id"`
	InsightType string `json:"insight_type" jsonschema:"Insight category: memory_bloat, n_plus_one or slow_query"`
}

type parseURLInput struct {
	URL string `json:"url" jsonschema:"A ScoutAPM dashboard URL to classify"`
}

type decodeEndpointInput struct {
	EndpointID string `json:"endpoint_id" jsonschema:"Opaque endpoint id to decode"`
}

// resolveRange turns tool arguments into a concrete time range. A range
// token wins over an explicit from.
func resolveRange(rangeToken, from, to string) (scout.TimeRange, error) {
	if rangeToken != "" {
		start, end, err := timeutil.CalculateRange(rangeToken, to)
		if err != nil {
			return scout.TimeRange{}, err
		}
		return scout.TimeRange{From: start, To: end}, nil
	}

	var rng scout.TimeRange
	if from != "" {
		t, err := timeutil.ParseTime(from)
		if err != nil {
			return scout.TimeRange{}, err
		}
		rng.From = &t
	}
	if to != "" {
		t, err := timeutil.ParseTime(to)
		if err != nil {
			return scout.TimeRange{}, err
		}
		rng.To = &t
	}
	return rng, nil
}

// registerTools adds every ScoutAPM tool to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_apps",
		Description: "List all applications monitored by ScoutAPM that are visible to the configured API key.",
		Annotations: readOnlyAnnotations(),
	}, s.handleListApps)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_app",
		Description: "Get details for one application: name, framework, language and git integration.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetApp)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_metrics",
		Description: "List the metric types available for an application.",
		Annotations: readOnlyAnnotations(),
	}, s.handleListMetrics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_metric",
		Description: "Get the time series for an app-wide metric. Accepts an explicit from/to window (max 2 weeks) or a relative range token such as 3hrs or 7days.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetMetric)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_endpoints",
		Description: "List the endpoints (routes / controller actions) tracked for an application.",
		Annotations: readOnlyAnnotations(),
	}, s.handleListEndpoints)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_endpoint",
		Description: "Get details for one endpoint by its opaque id.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetEndpoint)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_endpoint_metrics",
		Description: "Get the time series for one endpoint metric. Same range rules as get_metric.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetEndpointMetrics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_endpoint_traces",
		Description: "List captured traces for an endpoint. The range start must be within the last 7 days.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetEndpointTraces)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_trace",
		Description: "Get one captured trace with full span and timing detail.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetTrace)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_error_groups",
		Description: "List clustered application errors for an app.",
		Annotations: readOnlyAnnotations(),
	}, s.handleListErrorGroups)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_error_group",
		Description: "Get one error group with its message, location and occurrence counts.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetErrorGroup)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_error_group_errors",
		Description: "List the individual errors within an error group.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetErrorGroupErrors)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_insights",
		Description: "List current performance insights (n+1 queries, memory bloat, slow queries) for an app.",
		Annotations: readOnlyAnnotations(),
	}, s.handleListInsights)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_insights_by_type",
		Description: "List current insights of one category: memory_bloat, n_plus_one or slow_query.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetInsightsByType)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_insights_history",
		Description: "List historical insights across all categories.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetInsightsHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_insights_history_by_type",
		Description: "List historical insights of one category.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetInsightsHistoryByType)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_openapi_schema",
		Description: "Fetch the ScoutAPM API's OpenAPI document.",
		Annotations: readOnlyAnnotations(),
	}, s.handleGetOpenAPISchema)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "parse_dashboard_url",
		Description: "Classify a pasted ScoutAPM dashboard URL and extract the app, endpoint, trace, error group or insight identifiers it points at. Runs locally.",
		Annotations: localAnnotations(),
	}, s.handleParseDashboardURL)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "decode_endpoint_id",
		Description: "Decode an opaque endpoint id into its human-readable form (e.g. UsersController/index). Runs locally.",
		Annotations: localAnnotations(),
	}, s.handleDecodeEndpointID)
}

// --- Tool handlers ---

func (s *Server) handleListApps(ctx context.Context, _ *mcp.CallToolRequest, _ listAppsInput) (*mcp.CallToolResult, any, error) {
	apps, err := s.client.ListApps(ctx)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(apps)
}

func (s *Server) handleGetApp(ctx context.Context, _ *mcp.CallToolRequest, in appInput) (*mcp.CallToolResult, any, error) {
	app, err := s.client.GetApp(ctx, in.AppID)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(app)
}

func (s *Server) handleListMetrics(ctx context.Context, _ *mcp.CallToolRequest, in appInput) (*mcp.CallToolResult, any, error) {
	metrics, err := s.client.ListMetrics(ctx, in.AppID)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(metrics)
}

func (s *Server) handleGetMetric(ctx context.Context, _ *mcp.CallToolRequest, in metricInput) (*mcp.CallToolResult, any, error) {
	rng, err := resolveRange(in.Range, in.From, in.To)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	series, err := s.client.GetMetric(ctx, in.AppID, in.MetricType, rng)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(series)
}

func (s *Server) handleListEndpoints(ctx context.Context, _ *mcp.CallToolRequest, in appInput) (*mcp.CallToolResult, any, error) {
	endpoints, err := s.client.ListEndpoints(ctx, in.AppID)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(endpoints)
}

func (s *Server) handleGetEndpoint(ctx context.Context, _ *mcp.CallToolRequest, in endpointInput) (*mcp.CallToolResult, any, error) {
	endpoint, err := s.client.GetEndpoint(ctx, in.AppID, in.EndpointID)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(endpoint)
}

func (s *Server) handleGetEndpointMetrics(ctx context.Context, _ *mcp.CallToolRequest, in endpointMetricInput) (*mcp.CallToolResult, any, error) {
	rng, err := resolveRange(in.Range, in.From, in.To)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	series, err := s.client.GetEndpointMetrics(ctx, in.AppID, in.EndpointID, in.MetricType, rng)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(series)
}

func (s *Server) handleGetEndpointTraces(ctx context.Context, _ *mcp.CallToolRequest, in endpointTracesInput) (*mcp.CallToolResult, any, error) {
	rng, err := resolveRange(in.Range, in.From, in.To)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	traces, err := s.client.GetEndpointTraces(ctx, in.AppID, in.EndpointID, rng)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(traces)
}

func (s *Server) handleGetTrace(ctx context.Context, _ *mcp.CallToolRequest, in traceInput) (*mcp.CallToolResult, any, error) {
	trace, err := s.client.GetTrace(ctx, in.AppID, in.TraceID)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(trace)
}

func (s *Server) handleListErrorGroups(ctx context.Context, _ *mcp.CallToolRequest, in errorGroupsInput) (*mcp.CallToolResult, any, error) {
	rng, err := resolveRange(in.Range, in.From, in.To)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	groups, err := s.client.ListErrorGroups(ctx, in.AppID, rng)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(groups)
}

func (s *Server) handleGetErrorGroup(ctx context.Context, _ *mcp.CallToolRequest, in errorGroupInput) (*mcp.CallToolResult, any, error) {
	group, err := s.client.GetErrorGroup(ctx, in.AppID, in.ErrorGroupID)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(group)
}

func (s *Server) handleGetErrorGroupErrors(ctx context.Context, _ *mcp.CallToolRequest, in errorGroupInput) (*mcp.CallToolResult, any, error) {
	errs, err := s.client.GetErrorGroupErrors(ctx, in.AppID, in.ErrorGroupID)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(errs)
}

func (s *Server) handleListInsights(ctx context.Context, _ *mcp.CallToolRequest, in appInput) (*mcp.CallToolResult, any, error) {
	insights, err := s.client.ListInsights(ctx, in.AppID)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(insights)
}

func (s *Server) handleGetInsightsByType(ctx context.Context, _ *mcp.CallToolRequest, in insightTypeInput) (*mcp.CallToolResult, any, error) {
	insights, err := s.client.GetInsightsByType(ctx, in.AppID, in.InsightType)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(insights)
}

func (s *Server) handleGetInsightsHistory(ctx context.Context, _ *mcp.CallToolRequest, in appInput) (*mcp.CallToolResult, any, error) {
	insights, err := s.client.GetInsightsHistory(ctx, in.AppID)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(insights)
}

func (s *Server) handleGetInsightsHistoryByType(ctx context.Context, _ *mcp.CallToolRequest, in insightTypeInput) (*mcp.CallToolResult, any, error) {
	insights, err := s.client.GetInsightsHistoryByType(ctx, in.AppID, in.InsightType)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(insights)
}

func (s *Server) handleGetOpenAPISchema(ctx context.Context, _ *mcp.CallToolRequest, _ openAPISchemaInput) (*mcp.CallToolResult, any, error) {
	doc, err := s.client.GetOpenAPISchema(ctx)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(doc)
}

func (s *Server) handleParseDashboardURL(_ context.Context, _ *mcp.CallToolRequest, in parseURLInput) (*mcp.CallToolResult, any, error) {
	parsed, err := urlparse.Parse(in.URL)
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return s.jsonResult(parsed)
}

func (s *Server) handleDecodeEndpointID(_ context.Context, _ *mcp.CallToolRequest, in decodeEndpointInput) (*mcp.CallToolResult, any, error) {
	return s.jsonResult(map[string]string{
		"endpoint_id": in.EndpointID,
		"decoded":     urlparse.DecodeEndpointID(in.EndpointID),
	})
}
