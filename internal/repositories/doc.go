// Package repositories implements SQLite persistence for the development API.
//
// Key Implementations:
//   - [ContactRepository] : contact CRUD, paged listing and text search
//   - [TaskRepository] : task CRUD joined with the owning contact, status-only updates
//
// Both repositories page with [ListOptions]. Sort fields are mapped through fixed column
// whitelists and ties are broken by a per-table sequence number, allocated by [NextSequence]
// from a dedicated sequence table, so that a page boundary never splits rows inconsistently.
//
// Deletes are hard deletes. Removing a contact removes its tasks via ON DELETE CASCADE,
// which requires the connection to enable foreign keys (see shared.NewDatabase).
//
// Missing rows are reported by wrapping shared.ErrContactNotFound or shared.ErrTaskNotFound,
// and validation failures by wrapping shared.ErrInvalidInput.
package repositories
