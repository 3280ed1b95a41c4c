// Package ui implements the interactive date prompt using bubbletea's Elm architecture.
//
// [DatePrompt] wraps a bubbles/textinput field. Enter validates the date as YYYY-MM-DD and either accepts it
// or shows an inline error; esc and ctrl+c dismiss the prompt, which [PromptDate] reports as shared.ErrCancelled.
// A notice can be passed in to explain why a previous date was rejected, so callers can loop on the prompt.
//
// Styles come from a small lipgloss [Palette], also used by the CLI for coloured status lines.
package ui
