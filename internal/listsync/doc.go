// Package listsync keeps a paginated, searchable, filterable and sortable view of a remote collection consistent
// with the server.
//
// # Query
//
// A [Query] is an immutable description of what the user wants to see. Every setter returns a new Query with its
// Generation incremented. Changing the search text or a filter resets the page to 1; changing the page alone does
// not touch anything else.
//
// # Debouncing
//
// Keystrokes go through a [Debouncer] which coalesces a burst of input into a single search. Each push restarts
// the timer ([tea.Tick]) under a new tag and only the newest tag is ever committed.
//
// # Fetching
//
// A [View] owns one Query and one resident dataset per collection. Operations return a [tea.Cmd] that performs
// the network call off the event loop; the resulting message is applied with [View.Update]. Every fetch is stamped
// with the Query generation and a request sequence:
//   - starting a fetch cancels the context of the previous one
//   - a response whose generation is no longer current is discarded
//   - an aborted outcome is a no-op
//   - a failed fetch keeps the previous data and records the error
//
// # Filter Modes
//
// Views created with FilterLocally apply status and group filters over a resident superset instead of querying
// the server ([LocalMode]). Search, sort and paging in that mode are computed with [Filter], [SortRecords] and
// [Paginate]. Clearing the filters returns to [ServerMode] and re-issues the server query with the search text
// preserved.
//
// # Mutations
//
// Status changes are optimistic: the record is replaced immediately, counts are adjusted, and a
// [PendingMutation] is kept until the server answers. A failure reverts the record and notifies with the record's
// label. Create, update and delete go to the server first and then re-sync with the cache bypassed. Deleting the
// sole item of a page beyond the first steps back one page.
//
// # Driving
//
// A View is not safe for concurrent use; it is driven from a single goroutine, either by a Bubble Tea program or by
// [Drive], which runs a command chain synchronously for the CLI and tests.
package listsync
