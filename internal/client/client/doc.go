// Package client talks to the attendkeeper HTTP API.
//
// The Client interface is the transport-agnostic contract used by the CLI;
// HTTPClient implements it over JSON/HTTP and keeps the session token
// returned by Login for later calls.
//
// # Error Handling
//
// Transport failures map to ErrUnavailable, 401/403 responses to
// ErrUnauthorized and a duplicate registration to ErrAlreadyExists. Any other
// non-2xx response is returned as *APIError carrying the server's error and
// details strings.
package client
