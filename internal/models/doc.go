// Package models defines the value types passed between the chart, matching and playlist stages.
//
//   - [ChartEntry] : one (title, artist) row of a chart, compared by value
//   - [ChartSnapshot] : the entries fetched for one date, possibly empty
//   - [MatchResult] : the outcome of resolving one entry against the catalog,
//     either found (carries a [Track]) or not found (carries only the entry)
//   - [PlaylistRequest] : name, description and ordered track URIs for a new playlist
//   - [Playlist], [Track] : catalog objects returned by the services package
//
// None of these types are persisted. Values are created once by the stage that owns them and not mutated afterwards.
package models
