// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The [Model] hosts one [listsync.View] per tab (contacts, tasks). Every keystroke is translated into a view
// operation and the returned command is handed back to bubbletea; engine messages are forwarded to all views and
// each view ignores messages addressed to another.
//
// Search input goes through a bubbles textinput whose edits feed [listsync.View.Type], so the request is only
// issued once typing pauses. Enter commits the search immediately and esc leaves the input without committing.
//
// The status line shows the filter mode, page dots (bubbles paginator), sync and typing indicators, the last error,
// field errors from a rejected save, and notices, which expire after a few seconds.
//
// Deleting asks for a second press. A contact deletion invalidates the tasks tab because the server removes the
// contact's tasks with it.
package ui
