// Package urlparse classifies ScoutAPM dashboard URLs into a resource type
// and extracts the identifiers embedded in the path.
package urlparse

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URLType identifies the dashboard resource a URL points at.
type URLType string

const (
	TypeApp        URLType = "app"
	TypeEndpoint   URLType = "endpoint"
	TypeTrace      URLType = "trace"
	TypeErrorGroup URLType = "error_group"
	TypeInsight    URLType = "insight"
	TypeUnknown    URLType = "unknown"
)

// ParsedURL is the result of classifying a dashboard URL. A URL without an
// apps segment produces the zero value.
type ParsedURL struct {
	Type            URLType           `json:"url_type,omitempty"`
	AppID           int               `json:"app_id,omitempty"`
	EndpointID      string            `json:"endpoint_id,omitempty"`
	DecodedEndpoint string            `json:"decoded_endpoint,omitempty"`
	TraceID         int               `json:"trace_id,omitempty"`
	ErrorGroupID    int               `json:"error_group_id,omitempty"`
	InsightType     string            `json:"insight_type,omitempty"`
	QueryParams     map[string]string `json:"query_params,omitempty"`
}

// Parse classifies a dashboard URL. URLs without an apps path segment return
// an empty ParsedURL and no error; a present but non-numeric app id fails
// loudly rather than being coerced to a default.
func Parse(rawURL string) (ParsedURL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ParsedURL{}, fmt.Errorf("parse url: %w", err)
	}

	segments := splitPath(u.Path)

	appsIdx := indexOf(segments, "apps")
	if appsIdx < 0 {
		return ParsedURL{}, nil
	}
	if appsIdx+1 >= len(segments) {
		return ParsedURL{}, fmt.Errorf("dashboard url %q has no app id after the apps segment", rawURL)
	}

	appID, err := strconv.Atoi(segments[appsIdx+1])
	if err != nil {
		return ParsedURL{}, fmt.Errorf("dashboard url %q has a non-numeric app id %q", rawURL, segments[appsIdx+1])
	}

	result := ParsedURL{
		Type:        TypeUnknown,
		AppID:       appID,
		QueryParams: flattenQuery(u.Query()),
	}

	rest := segments[appsIdx+2:]

	switch {
	case contains(rest, "endpoints") && contains(rest, "trace"):
		result.Type = TypeTrace
		result.EndpointID = segmentAfter(rest, "endpoints")
		raw := segmentAfter(rest, "trace")
		if raw == "" {
			return ParsedURL{}, fmt.Errorf("dashboard url %q has no trace id after the trace segment", rawURL)
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return ParsedURL{}, fmt.Errorf("dashboard url %q has a non-numeric trace id %q", rawURL, raw)
		}
		result.TraceID = id
	case contains(rest, "endpoints"):
		result.Type = TypeEndpoint
		result.EndpointID = segmentAfter(rest, "endpoints")
	case contains(rest, "error_groups"):
		result.Type = TypeErrorGroup
		// No id after the marker is the error group list page.
		if raw := segmentAfter(rest, "error_groups"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				return ParsedURL{}, fmt.Errorf("dashboard url %q has a non-numeric error group id %q", rawURL, raw)
			}
			result.ErrorGroupID = id
		}
	case contains(rest, "insights"):
		result.Type = TypeInsight
		result.InsightType = segmentAfter(rest, "insights")
	case len(rest) == 0:
		result.Type = TypeApp
	}

	if result.EndpointID != "" {
		result.DecodedEndpoint = DecodeEndpointID(result.EndpointID)
	}

	return result, nil
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

func indexOf(segments []string, marker string) int {
	for i, s := range segments {
		if s == marker {
			return i
		}
	}
	return -1
}

func contains(segments []string, marker string) bool {
	return indexOf(segments, marker) >= 0
}

func segmentAfter(segments []string, marker string) string {
	i := indexOf(segments, marker)
	if i < 0 || i+1 >= len(segments) {
		return ""
	}
	return segments[i+1]
}

// flattenQuery reduces multi-valued query parameters to a flat map where the
// last occurrence of a key wins.
func flattenQuery(values url.Values) map[string]string {
	if len(values) == 0 {
		return nil
	}
	flat := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			flat[k] = vs[len(vs)-1]
		}
	}
	return flat
}
