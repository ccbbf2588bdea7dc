// Package timeutil parses ISO-8601 timestamps and relative range tokens
// ("3hrs", "7days") into concrete UTC boundaries, and validates the
// time-range limits the ScoutAPM API enforces.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxMetricRange is the widest span the API accepts for metric queries.
	MaxMetricRange = 14 * 24 * time.Hour

	// MaxTraceAge is how far back trace queries may reach.
	MaxTraceAge = 7 * 24 * time.Hour
)

// ParseError reports a timestamp that could not be parsed.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: expected ISO-8601 with Z or offset (e.g. 2025-01-15T12:00:00Z)", e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidRangeError reports a range token that does not match the grammar.
type InvalidRangeError struct {
	Token string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %q: expected a number followed by min(s), hr(s), hour(s) or day(s), e.g. %q, %q or %q",
		e.Token, "30mins", "3hrs", "7days")
}

var rangePattern = regexp.MustCompile(`^(\d+)(min|mins|hr|hrs|hour|hours|day|days)$`)

// ParseTime parses an ISO-8601 timestamp with a Z suffix or explicit offset
// and normalizes it to UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ParseError{Input: s, Err: err}
	}
	return t.UTC(), nil
}

// FormatTime renders a timestamp as YYYY-MM-DDTHH:MM:SSZ in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// ParseRange converts a relative range token into a duration. The token is
// whitespace-stripped and case-insensitive. An empty token yields a zero
// duration, meaning no range was requested.
func ParseRange(token string) (time.Duration, error) {
	normalized := strings.ToLower(strings.TrimSpace(token))
	if normalized == "" {
		return 0, nil
	}

	m := rangePattern.FindStringSubmatch(normalized)
	if m == nil {
		return 0, &InvalidRangeError{Token: token}
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &InvalidRangeError{Token: token}
	}

	switch m[2] {
	case "min", "mins":
		return time.Duration(n) * time.Minute, nil
	case "hr", "hrs", "hour", "hours":
		return time.Duration(n) * time.Hour, nil
	default:
		return time.Duration(n) * 24 * time.Hour, nil
	}
}

// CalculateRange resolves a range token and an optional end timestamp into
// concrete from/to boundaries.
//
// An empty token yields {from: nil, to: toStr}. A bare integer token is
// treated as a number of days. When toStr is empty, the end boundary
// defaults to the current time in UTC.
func CalculateRange(token, toStr string) (from, to *time.Time, err error) {
	token = strings.TrimSpace(token)

	if toStr != "" {
		parsed, perr := ParseTime(toStr)
		if perr != nil {
			return nil, nil, perr
		}
		to = &parsed
	}

	if token == "" {
		return nil, to, nil
	}

	if _, aerr := strconv.Atoi(token); aerr == nil {
		token += "days"
	}

	dur, err := ParseRange(token)
	if err != nil {
		return nil, nil, err
	}

	if to == nil {
		now := time.Now().UTC().Truncate(time.Second)
		to = &now
	}

	start := to.Add(-dur)
	return &start, to, nil
}

// ValidateTimeRange checks that from precedes to and that the span does not
// exceed max. A non-positive max disables the span check.
func ValidateTimeRange(from, to time.Time, max time.Duration) error {
	if !from.Before(to) {
		return fmt.Errorf("time range start %s must be before end %s", FormatTime(from), FormatTime(to))
	}
	if max > 0 && to.Sub(from) > max {
		return fmt.Errorf("time range %s to %s exceeds the maximum span of %s",
			FormatTime(from), FormatTime(to), max)
	}
	return nil
}

// ValidateTraceAge checks that from is within the trace retention window.
func ValidateTraceAge(from time.Time) error {
	if time.Since(from) > MaxTraceAge {
		return fmt.Errorf("trace range start %s is older than the %s retention window", FormatTime(from), MaxTraceAge)
	}
	return nil
}
