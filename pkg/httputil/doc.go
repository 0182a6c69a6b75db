// Package httputil provides the HTTP plumbing used by catalog clients.
//
// # Overview
//
//   - [Client]: GET requests with default headers, a request rate limit,
//     status mapping and observability hooks
//   - [Retry]: bounded retry with exponential backoff
//
// # Errors
//
// Network failures, 5xx responses and 429 responses are wrapped in
// [RetryableError] so that [Retry] attempts them again. A 404 maps to
// [ErrNotFound]; every other non-200 status maps to [ErrNetwork] and is
// returned immediately.
//
// # Rate limiting
//
// Scryfall asks clients to stay around ten requests per second. [Client]
// waits on a token bucket before every request; the wait honours the
// request context.
package httputil
