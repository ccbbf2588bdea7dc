// Package scout is a thin client for the ScoutAPM REST API.
//
// # Overview
//
// Every method maps to one GET request against a fixed path under
// https://scoutapm.com/api/v0, authenticated with an API key header.
// Responses arrive wrapped in an envelope; methods return the useful
// substructure (results.apps, results.trace, ...) rather than the raw
// envelope, defaulting to an empty slice or map when absent.
//
// # Errors
//
//	*ValidationError      bad enum value or invalid time range, raised
//	                      before any network call
//	*AuthenticationError  HTTP 401
//	*NotFoundError        HTTP 404
//	*APIError             other non-2xx statuses, and API-level errors
//	                      embedded in 200 responses (header.status.code)
//	*SSLError             TLS verification failure; the trust store can be
//	                      overridden with $SCOUT_APM_CA_FILE
//
// Calls are stateless request/response with fixed 10-second connect and
// read timeouts and a 20-second ceiling on the whole exchange, body
// included. Nothing is retried. Successful bodies are optionally
// cached for five minutes when the client is built with a cache.
package scout
