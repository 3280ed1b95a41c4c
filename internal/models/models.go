package models

import (
	"fmt"
	"time"
)

// DateLayout is the YYYY-MM-DD layout used for chart dates everywhere.
const DateLayout = "2006-01-02"

// ChartEntry is a single song on a chart.
type ChartEntry struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// String renders the entry as "title - artist", the format of the unmatched report.
func (e ChartEntry) String() string {
	return fmt.Sprintf("%s - %s", e.Title, e.Artist)
}

// ChartSnapshot is the result of fetching a chart for one date.
//
// Status is the HTTP status of the fetch (0 on transport failure) and is informational only.
type ChartSnapshot struct {
	Date    time.Time    `json:"date"`
	Entries []ChartEntry `json:"entries"`
	Status  int          `json:"-"`
}

// Len returns the number of entries.
func (s ChartSnapshot) Len() int { return len(s.Entries) }

// DateString formats the snapshot date with [DateLayout].
func (s ChartSnapshot) DateString() string { return s.Date.Format(DateLayout) }

// Track represents a music track from the catalog
type Track struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	Duration    int    `json:"duration"` // Duration in seconds
}

// Playlist represents a playlist created in the catalog
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// MatchResult is the outcome of matching one [ChartEntry].
//
// Track is nil when the entry was not found. Err is set when the lookup itself failed;
// such entries are still reported as not found.
type MatchResult struct {
	Entry ChartEntry `json:"entry"`
	Track *Track     `json:"track,omitempty"`
	Err   error      `json:"-"`
}

// Found creates a [MatchResult] for a resolved entry.
func Found(entry ChartEntry, track Track) MatchResult {
	return MatchResult{Entry: entry, Track: &track}
}

// NotFound creates a [MatchResult] for an entry with no catalog match. err may be nil.
func NotFound(entry ChartEntry, err error) MatchResult {
	return MatchResult{Entry: entry, Err: err}
}

// Found reports whether the entry resolved to a track.
func (m MatchResult) Found() bool {
	return m.Track != nil
}

// URI returns the matched track URI, or "" when not found.
func (m MatchResult) URI() string {
	if m.Track == nil {
		return ""
	}
	return m.Track.URI
}

// PlaylistRequest collects everything needed to create and fill a playlist.
type PlaylistRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Public      bool     `json:"public"`
	TrackIDs    []string `json:"track_ids"`
}
