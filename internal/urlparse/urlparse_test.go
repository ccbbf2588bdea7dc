package urlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTraceURL(t *testing.T) {
	parsed, err := Parse("https://scoutapm.com/apps/123/endpoints/ABC/trace/456")
	require.NoError(t, err)

	assert.Equal(t, TypeTrace, parsed.Type)
	assert.Equal(t, 123, parsed.AppID)
	assert.Equal(t, "ABC", parsed.EndpointID)
	assert.Equal(t, 456, parsed.TraceID)
}

func TestParseAppURL(t *testing.T) {
	parsed, err := Parse("https://scoutapm.com/apps/123")
	require.NoError(t, err)

	assert.Equal(t, TypeApp, parsed.Type)
	assert.Equal(t, 123, parsed.AppID)
	assert.Empty(t, parsed.EndpointID)
	assert.Zero(t, parsed.TraceID)
}

func TestParseEndpointURL(t *testing.T) {
	endpointID := EncodeEndpointID("UsersController/index")

	parsed, err := Parse("https://scoutapm.com/apps/42/endpoints/" + endpointID)
	require.NoError(t, err)

	assert.Equal(t, TypeEndpoint, parsed.Type)
	assert.Equal(t, 42, parsed.AppID)
	assert.Equal(t, endpointID, parsed.EndpointID)
	assert.Equal(t, "UsersController/index", parsed.DecodedEndpoint)
}

func TestParseErrorGroupURL(t *testing.T) {
	parsed, err := Parse("https://scoutapm.com/apps/7/error_groups/991")
	require.NoError(t, err)

	assert.Equal(t, TypeErrorGroup, parsed.Type)
	assert.Equal(t, 7, parsed.AppID)
	assert.Equal(t, 991, parsed.ErrorGroupID)
}

func TestParseErrorGroupListURL(t *testing.T) {
	parsed, err := Parse("https://scoutapm.com/apps/7/error_groups")
	require.NoError(t, err)

	assert.Equal(t, TypeErrorGroup, parsed.Type)
	assert.Zero(t, parsed.ErrorGroupID)
}

func TestParseInsightURL(t *testing.T) {
	parsed, err := Parse("https://scoutapm.com/apps/9/insights/n_plus_one")
	require.NoError(t, err)

	assert.Equal(t, TypeInsight, parsed.Type)
	assert.Equal(t, 9, parsed.AppID)
	assert.Equal(t, "n_plus_one", parsed.InsightType)
}

func TestParseInsightURLWithoutType(t *testing.T) {
	parsed, err := Parse("https://scoutapm.com/apps/9/insights")
	require.NoError(t, err)

	assert.Equal(t, TypeInsight, parsed.Type)
	assert.Empty(t, parsed.InsightType)
}

func TestParseUnknownSubpath(t *testing.T) {
	parsed, err := Parse("https://scoutapm.com/apps/9/settings/alerts")
	require.NoError(t, err)

	assert.Equal(t, TypeUnknown, parsed.Type)
	assert.Equal(t, 9, parsed.AppID)
}

func TestParseWithoutAppsSegment(t *testing.T) {
	for _, raw := range []string{
		"https://scoutapm.com/",
		"https://scoutapm.com/settings",
		"https://example.com/foo/bar",
	} {
		parsed, err := Parse(raw)
		require.NoError(t, err, "url %q", raw)
		assert.Equal(t, ParsedURL{}, parsed, "url %q", raw)
	}
}

func TestParseQueryParamsLastOccurrenceWins(t *testing.T) {
	parsed, err := Parse("https://scoutapm.com/apps/123?from=a&from=b&granularity=hour")
	require.NoError(t, err)

	assert.Equal(t, "b", parsed.QueryParams["from"])
	assert.Equal(t, "hour", parsed.QueryParams["granularity"])
}

func TestParseRejectsNonNumericIDs(t *testing.T) {
	_, err := Parse("https://scoutapm.com/apps/oops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-numeric app id")

	_, err = Parse("https://scoutapm.com/apps/123/endpoints/ABC/trace/oops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-numeric trace id")

	_, err = Parse("https://scoutapm.com/apps/123/error_groups/oops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-numeric error group id")
}

func TestParseRejectsMissingAppID(t *testing.T) {
	_, err := Parse("https://scoutapm.com/apps")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no app id")
}

func TestParseTraceURLWithoutIDFails(t *testing.T) {
	_, err := Parse("https://scoutapm.com/apps/1/endpoints/ABC/trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trace id")
}
