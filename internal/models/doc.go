// Package models defines the records kept in sync by the crmx list engine.
//
// The package contains two categories of types:
//
// 1. Records: wire-compatible entities returned by the remote API
//   - [Contact] : a person tracked by the user, faceted by status and company
//   - [Task] : a follow-up attached to a contact, faceted by status and contact company
//
// 2. Paging values shared by transport, engine and views
//   - [Pagination] : normalized page metadata (total, page count, page, size)
//   - [Page] : one fetched page of records plus per-status counts
//
// Every record implements [Record], which is the only view of an entity the list engine needs:
// a stable key, a status, a secondary facet value, searchable text and sort values.
// Records are values; [Record.WithState] returns a modified copy and never mutates the receiver.
package models
