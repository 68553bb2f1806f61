// Package services defines the [Source] interface for remote record collections and implements it for contacts and tasks.
//
// # Source Interface
//
// The list engine only talks to a [Source]: paginated list, free-text search, single record fetch, and the
// create/update/delete/status mutations. Every mutation is sent through the transport with the cache bypassed.
//
// # Contacts
//
// [ContactService] addresses the protected contacts API. Single contacts are selected with an id query parameter
// (GET, POST for update, DELETE). There is no status endpoint, so a status change is a full update.
//
// # Tasks
//
// [TaskService] addresses /api/tasks. Single tasks live under /api/tasks/{id} and PATCH carries the status-only
// fast path.
//
// # Response Schemas
//
// Responses are decoded into explicit envelopes and validated before use:
//   - list and search: {contacts|tasks|items, pagination, counts}
//   - pagination is accepted as {total, pages, page, limit} or {total, totalPages, currentPage, pageSize}
//   - single records: {contact|task|item}
//
// A shape that fails validation is reported as a [transport.KindParse] failure.
package services
