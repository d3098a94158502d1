// Package ui implements the interactive settings panel using bubbletea's Elm architecture.
//
// The panel mirrors the browser popup of the original extension:
//  1. [SettingsView] : toggle the engine and debug output, open the quality picker, save
//  2. [QualityView] : pick the desired quality label from the rank table
//
// Saving writes the configuration file first and then pushes the change to a running daemon.
// A failed push is reported but does not undo the save; the daemon's file watcher picks the
// change up anyway.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, space, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
