// Package clickup is the upstream store adapter for the ClickUp REST API.
//
// It provides a paced HTTP client with bounded retry on 429 responses,
// a distinguishable rate-limit error type, and generic entity CRUD and
// search operations keyed by entity type. Responses are returned as
// opaque Entity maps; shaping happens in the format package.
package clickup
