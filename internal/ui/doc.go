// Package ui implements the terminal content browser using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [ListView] : Browse the signed-in user's content, with the selected item's details alongside
//  2. [DetailView] : Read one item's metadata and a plain-text rendering of its body
//  3. [ConfirmDeleteView] : Confirm deleting the selected item
//
// Details are loaded through a [loader.Loader] whenever the selection changes. Each load carries
// the ticket it was started with, and a response whose ticket is no longer current is dropped,
// so moving quickly through the list never shows the details of an item no longer selected.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, d, y/n, o, r, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
