// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI watches a single blend session:
//  1. a spinner with the latest [tasks.WatchUpdate] message while the session is loading or waiting
//  2. the merged track list once the second participant has joined
//  3. the error when the session is missing or the attempt budget runs out
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Updates flow through a channel from the [tasks.Watcher], providing non-blocking status reporting while polling.
//
// Quitting cancels the watch. Keyboard navigation uses vim-style bindings (j/k, o, q) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
