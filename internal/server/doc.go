// Package server implements the development REST API that the crmx client synchronizes against.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /api/tasks/{id}"),
// so the mux answers 405 for a known path requested with another method.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// Handlers dispatch on [http.Request.Pattern].
//
//   - [ContactHandler] : /api/protected/contacts, single records addressed by ?id=, updates POSTed
//   - [TaskHandler] : /api/tasks and /api/tasks/{id}, PUT for updates and PATCH {status} for status changes
//
// # Responses
//
// List endpoints return {contacts|tasks, pagination, counts}; contact search uses the long pagination
// spelling {total, totalPages, currentPage, pageSize}. Errors are {"error": "..."}; validation failures
// add {"details": {"field": {"_errors": ["..."]}}} with status 400.
//
// # Middleware
//
// [Recover], [Logging] and [BearerAuth] are installed by [New]. BearerAuth only guards /api paths
// and is disabled when no token is configured.
package server
