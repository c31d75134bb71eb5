// Package webhook is the client for the remote backend that stores bot users.
//
// # Endpoints
//
//	GET  <list>                      -> [{"user": "..."}, ...]
//	GET  <data>?user=<name>          -> {...} or [{...}]
//	POST <update>?user=&pass=&textprompt=&imageprompt=&type=   (no body)
//
// The update endpoint is an upsert keyed by username. A non-empty password
// is transmitted as the lowercase hex SHA-256 digest of its UTF-8 bytes; an
// empty password is transmitted as the empty string.
//
// # Errors
//
// Every failure is a *NetworkError. Use errors.As to inspect StatusCode.
// The client performs no retries.
package webhook
