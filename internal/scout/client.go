package scout

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/amkisko/scout-apm-mcp/internal/cache"
	"github.com/amkisko/scout-apm-mcp/internal/timeutil"
	"github.com/amkisko/scout-apm-mcp/internal/version"
)

const (
	// DefaultBaseURL is the ScoutAPM REST API root.
	DefaultBaseURL = "https://scoutapm.com/api/v0"

	// EnvCAFile overrides the trust store used for TLS verification.
	EnvCAFile = "SCOUT_APM_CA_FILE"

	apiKeyHeader = "X-SCOUT-API"

	connectTimeout = 10 * time.Second
	readTimeout    = 10 * time.Second

	// requestTimeout bounds the whole exchange, including reading the
	// body. The per-phase transport timeouts do not cover a server that
	// sends headers promptly and then drips the body.
	requestTimeout = connectTimeout + readTimeout
)

// MetricTypes is the fixed allow-list of metric series the API serves.
var MetricTypes = []string{
	"apdex",
	"errors",
	"queue_time",
	"response_time",
	"response_time_95th",
	"throughput",
}

// InsightTypes is the fixed allow-list of insight categories.
var InsightTypes = []string{
	"memory_bloat",
	"n_plus_one",
	"slow_query",
}

// ClientOptions configures the API client.
type ClientOptions struct {
	// APIKey authenticates every request. Required.
	APIKey string

	// BaseURL of the REST API. Default: DefaultBaseURL.
	BaseURL string

	// UserAgent header value. Default: version.UserAgent().
	UserAgent string

	// HTTPClient overrides the built-in client (and its timeouts and TLS
	// configuration). Mainly for tests.
	HTTPClient *http.Client

	// CAFile is a PEM bundle replacing the platform trust store. When
	// empty, $SCOUT_APM_CA_FILE is consulted, then the platform default.
	CAFile string

	// Cache holds successful response bodies for a short TTL. May be nil.
	Cache *cache.ResponseCache

	// Logger for request diagnostics.
	Logger *zap.Logger
}

// DefaultClientOptions returns sensible defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		BaseURL:   DefaultBaseURL,
		UserAgent: version.UserAgent(),
	}
}

// Client issues authenticated GET requests to the ScoutAPM REST API and
// maps error responses to typed errors. Immutable after construction; safe
// for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      *cache.ResponseCache
	logger     *zap.Logger
}

// NewClient creates a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("scout: API key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = version.UserAgent()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		tlsConfig, err := tlsConfigFromEnv(opts.CAFile)
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
				TLSHandshakeTimeout:   connectTimeout,
				ResponseHeaderTimeout: readTimeout,
				TLSClientConfig:       tlsConfig,
			},
		}
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: httpClient,
		cache:      opts.Cache,
		logger:     opts.Logger.Named("scout"),
	}, nil
}

// tlsConfigFromEnv builds a TLS configuration honoring the certificate file
// override. Returns nil (platform default trust store) when unset.
func tlsConfigFromEnv(caFile string) (*tls.Config, error) {
	if caFile == "" {
		caFile = os.Getenv(EnvCAFile)
	}
	if caFile == "" {
		return nil, nil
	}

	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA file %q: %w", caFile, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("CA file %q contains no usable certificates", caFile)
	}
	return &tls.Config{RootCAs: pool}, nil
}

// envelope is the wrapper the API puts around every response body. The
// backend signals errors in-band through header.status as well as via the
// HTTP status code, and both paths must be checked.
type envelope struct {
	Header struct {
		Status struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"status"`
	} `json:"header"`
	Results map[string]json.RawMessage `json:"results"`
}

// get performs one GET request and returns the raw body after error
// mapping. Successful bodies are cached when a cache is configured.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	if c.cache != nil {
		if body, found := c.cache.Get(fullURL); found {
			c.logger.Debug("cache hit", zap.String("url", fullURL))
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTLSVerificationError(err) {
			return nil, &SSLError{Err: err}
		}
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response for %s: %w", path, err)
	}

	c.logger.Debug("API request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthenticationError{Message: envelopeMessage(body)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Path: path}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    envelopeMessage(body),
			RawBody:    body,
		}
	}

	// The backend also reports errors inside 200 responses.
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Header.Status.Code >= 400 {
		return nil, &APIError{
			StatusCode: env.Header.Status.Code,
			Message:    env.Header.Status.Message,
			RawBody:    body,
		}
	}

	if c.cache != nil {
		c.cache.Set(fullURL, body)
	}

	return body, nil
}

func envelopeMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Header.Status.Message
}

func isTLSVerificationError(err error) bool {
	var (
		certErr      *tls.CertificateVerificationError
		unknownAuth  x509.UnknownAuthorityError
		certInvalid  x509.CertificateInvalidError
		hostnameMiss x509.HostnameError
	)
	if errors.As(err, &certErr) || errors.As(err, &unknownAuth) ||
		errors.As(err, &certInvalid) || errors.As(err, &hostnameMiss) {
		return true
	}
	// Errors from proxies and wrapped transports lose type information.
	return strings.Contains(err.Error(), "x509:") ||
		strings.Contains(err.Error(), "certificate")
}

// listResults extracts a list substructure from the envelope, defaulting to
// an empty slice when absent.
func listResults(body []byte, key string) ([]map[string]any, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	raw, ok := env.Results[key]
	if !ok {
		return []map[string]any{}, nil
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode results.%s: %w", key, err)
	}
	if items == nil {
		items = []map[string]any{}
	}
	return items, nil
}

// objectResults extracts an object substructure from the envelope,
// defaulting to an empty map when absent.
func objectResults(body []byte, key string) (map[string]any, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	raw, ok := env.Results[key]
	if !ok {
		return map[string]any{}, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode results.%s: %w", key, err)
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}

func validateMetricType(metricType string) error {
	for _, t := range MetricTypes {
		if t == metricType {
			return nil
		}
	}
	return &ValidationError{
		Message: fmt.Sprintf("unknown metric type %q: expected one of %s", metricType, strings.Join(MetricTypes, ", ")),
	}
}

func validateInsightType(insightType string) error {
	for _, t := range InsightTypes {
		if t == insightType {
			return nil
		}
	}
	return &ValidationError{
		Message: fmt.Sprintf("unknown insight type %q: expected one of %s", insightType, strings.Join(InsightTypes, ", ")),
	}
}

// TimeRange bounds a query. Both fields are optional; when both are set
// they are validated before any network call.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// apply validates the range against max and adds from/to query parameters.
func (r TimeRange) apply(query url.Values, max time.Duration) error {
	if r.From != nil && r.To != nil {
		if err := timeutil.ValidateTimeRange(*r.From, *r.To, max); err != nil {
			return &ValidationError{Message: err.Error()}
		}
	}
	if r.From != nil {
		query.Set("from", timeutil.FormatTime(*r.From))
	}
	if r.To != nil {
		query.Set("to", timeutil.FormatTime(*r.To))
	}
	return nil
}

// ListApps returns all applications visible to the API key.
func (c *Client) ListApps(ctx context.Context) ([]map[string]any, error) {
	body, err := c.get(ctx, "/apps", nil)
	if err != nil {
		return nil, err
	}
	return listResults(body, "apps")
}

// GetApp returns one application.
func (c *Client) GetApp(ctx context.Context, appID int) (map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d", appID), nil)
	if err != nil {
		return nil, err
	}
	return objectResults(body, "app")
}

// ListMetrics returns the metric types available for an application.
func (c *Client) ListMetrics(ctx context.Context, appID int) ([]map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/metrics", appID), nil)
	if err != nil {
		return nil, err
	}
	return listResults(body, "availableMetrics")
}

// GetMetric returns the time series for one app-wide metric. The span of
// rng may not exceed two weeks.
func (c *Client) GetMetric(ctx context.Context, appID int, metricType string, rng TimeRange) (map[string]any, error) {
	if err := validateMetricType(metricType); err != nil {
		return nil, err
	}
	query := url.Values{}
	if err := rng.apply(query, timeutil.MaxMetricRange); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/metrics/%s", appID, url.PathEscape(metricType)), query)
	if err != nil {
		return nil, err
	}
	return objectResults(body, "series")
}

// ListEndpoints returns the endpoints tracked for an application.
func (c *Client) ListEndpoints(ctx context.Context, appID int) ([]map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/endpoints", appID), nil)
	if err != nil {
		return nil, err
	}
	return listResults(body, "endpoints")
}

// GetEndpoint returns one endpoint. endpointID is the opaque encoded id;
// it is percent-encoded because its decoded form may contain slashes.
func (c *Client) GetEndpoint(ctx context.Context, appID int, endpointID string) (map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/endpoints/%s", appID, url.PathEscape(endpointID)), nil)
	if err != nil {
		return nil, err
	}
	return objectResults(body, "endpoint")
}

// GetEndpointMetrics returns the time series for one endpoint metric.
func (c *Client) GetEndpointMetrics(ctx context.Context, appID int, endpointID, metricType string, rng TimeRange) (map[string]any, error) {
	if err := validateMetricType(metricType); err != nil {
		return nil, err
	}
	query := url.Values{}
	if err := rng.apply(query, timeutil.MaxMetricRange); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/endpoints/%s/metrics/%s",
		appID, url.PathEscape(endpointID), url.PathEscape(metricType)), query)
	if err != nil {
		return nil, err
	}
	return objectResults(body, "series")
}

// GetEndpointTraces returns captured traces for an endpoint. The range
// start may not be older than seven days.
func (c *Client) GetEndpointTraces(ctx context.Context, appID int, endpointID string, rng TimeRange) ([]map[string]any, error) {
	if rng.From != nil {
		if err := timeutil.ValidateTraceAge(*rng.From); err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
	}
	query := url.Values{}
	if err := rng.apply(query, 0); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/endpoints/%s/traces", appID, url.PathEscape(endpointID)), query)
	if err != nil {
		return nil, err
	}
	return listResults(body, "traces")
}

// GetTrace returns one captured trace with span detail.
func (c *Client) GetTrace(ctx context.Context, appID, traceID int) (map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/traces/%d", appID, traceID), nil)
	if err != nil {
		return nil, err
	}
	return objectResults(body, "trace")
}

// ListErrorGroups returns clustered application errors.
func (c *Client) ListErrorGroups(ctx context.Context, appID int, rng TimeRange) ([]map[string]any, error) {
	query := url.Values{}
	if err := rng.apply(query, 0); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/error_groups", appID), query)
	if err != nil {
		return nil, err
	}
	return listResults(body, "error_groups")
}

// GetErrorGroup returns one error group.
func (c *Client) GetErrorGroup(ctx context.Context, appID, errorGroupID int) (map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/error_groups/%d", appID, errorGroupID), nil)
	if err != nil {
		return nil, err
	}
	return objectResults(body, "error_group")
}

// GetErrorGroupErrors returns the individual errors within a group.
func (c *Client) GetErrorGroupErrors(ctx context.Context, appID, errorGroupID int) ([]map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/error_groups/%d/errors", appID, errorGroupID), nil)
	if err != nil {
		return nil, err
	}
	return listResults(body, "errors")
}

// ListInsights returns all current performance insights.
func (c *Client) ListInsights(ctx context.Context, appID int) (map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/insights", appID), nil)
	if err != nil {
		return nil, err
	}
	return objectResults(body, "insights")
}

// GetInsightsByType returns current insights of one category.
func (c *Client) GetInsightsByType(ctx context.Context, appID int, insightType string) (map[string]any, error) {
	if err := validateInsightType(insightType); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/insights/%s", appID, url.PathEscape(insightType)), nil)
	if err != nil {
		return nil, err
	}
	return objectResults(body, "insights")
}

// GetInsightsHistory returns historical insights across all categories.
func (c *Client) GetInsightsHistory(ctx context.Context, appID int) (map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/insights/history", appID), nil)
	if err != nil {
		return nil, err
	}
	return objectResults(body, "insights")
}

// GetInsightsHistoryByType returns historical insights of one category.
func (c *Client) GetInsightsHistoryByType(ctx context.Context, appID int, insightType string) (map[string]any, error) {
	if err := validateInsightType(insightType); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, fmt.Sprintf("/apps/%d/insights/history/%s", appID, url.PathEscape(insightType)), nil)
	if err != nil {
		return nil, err
	}
	return objectResults(body, "insights")
}

// GetOpenAPISchema fetches and decodes the API's OpenAPI document.
func (c *Client) GetOpenAPISchema(ctx context.Context) (map[string]any, error) {
	body, err := c.get(ctx, "/openapi.yaml", nil)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode OpenAPI document: %w", err)
	}
	return doc, nil
}
