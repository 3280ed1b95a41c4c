// Package tasks turns a resolved chart into a playlist with real-time progress reporting.
//
// # Core Operations
//
// [ChartEngine] runs the pipeline in two steps:
//
//  1. [ChartEngine.Resolve] : find the nearest complete chart for a date
//     - Normalizes the date to the publication weekday
//     - Searches backward when the chart is incomplete
//
//  2. [ChartEngine.Run] : build the playlist from a resolved chart
//     - Matches every entry against the catalog in chart order ([Matcher])
//     - Writes the unmatched report when any entry was not found
//     - Stops with [shared.ErrNoMatches] when nothing matched
//     - Creates and fills the playlist ([PlaylistBuilder]) unless running dry
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Matching
//
// A catalog miss is a value, not an error: [Matcher.Match] always returns a [models.MatchResult].
// Transport failures are logged and recorded on the result, and the batch continues.
package tasks
