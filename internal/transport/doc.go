// Package transport performs HTTP calls against the CRM API and normalizes every outcome
// into either a decoded payload or a typed [*Failure].
//
// # Response Classification
//
// [Client.Do] never panics and never returns an untyped error for an expected outcome:
//   - 2xx with a JSON body : decoded into the caller's value
//   - 204, zero length, blank body or a non-JSON content type : treated as an empty object
//   - non-2xx : [KindHTTP] carrying the server's "error" text, or "HTTP <status>"
//   - 400/422 with "details" : [KindValidation] with flattened field messages
//   - malformed JSON : [KindParse]
//   - cancelled context : [KindAborted], which callers treat as a no-op
//   - connection failures and timeouts : [KindNetwork]
//
// # Cache Bypass
//
// Reads are served from an in-process [Cache] while fresh. A [Request] with BypassCache set
// appends a unique "_" query parameter, sends "Cache-Control: no-store", skips the cache lookup
// and refreshes the cached copy. Every write must be followed by a bypassing read.
//
// # Session
//
// Requests carry the session collaborator's credentials: a bearer token through an
// [oauth2.Transport] and/or headers copied from a browser session ([shared.SessionHeaders]).
// An optional [rate.Limiter] paces outgoing requests.
package transport
