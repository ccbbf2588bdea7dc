// Package mcpserver exposes the ScoutAPM API client as tools on a Model
// Context Protocol server.
//
// # Transport
//
// The server speaks JSON-RPC 2.0 over stdio, one request at a time, using
// the official MCP Go SDK. Tool calls dispatch synchronously; the only
// blocking operation is the HTTP request inside the API client.
//
// # Tools
//
//	list_apps                      applications visible to the API key
//	get_app                        one application
//	list_metrics                   metric types available for an app
//	get_metric                     app-wide metric time series
//	list_endpoints                 endpoints tracked for an app
//	get_endpoint                   one endpoint
//	get_endpoint_metrics           per-endpoint metric time series
//	get_endpoint_traces            captured traces for an endpoint
//	get_trace                      one trace with span detail
//	list_error_groups              clustered application errors
//	get_error_group                one error group
//	get_error_group_errors         individual errors within a group
//	list_insights                  current performance insights
//	get_insights_by_type           current insights of one category
//	get_insights_history           historical insights
//	get_insights_history_by_type   historical insights of one category
//	get_openapi_schema             the API's OpenAPI document
//	parse_dashboard_url            classify a pasted dashboard URL
//	decode_endpoint_id             decode an opaque endpoint id
//
// # Errors
//
// Every client or validation error is converted into a tool result with
// IsError set, never a protocol error: the server keeps running across
// individual tool failures.
package mcpserver
