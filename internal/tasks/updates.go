package tasks

import (
	"fmt"

	"github.com/desertthunder/chartlist/internal/chart"
	"github.com/desertthunder/chartlist/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveChart Phase = iota
	ProbeChart
	SearchTracks
	WriteReport
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case ResolveChart:
		return "resolve_chart"
	case ProbeChart:
		return "probe_chart"
	case SearchTracks:
		return "search_tracks"
	case WriteReport:
		return "write_report"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

func resolvingUpdate(date string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveChart,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Resolving chart for %s...", date),
	}
}

func probeUpdate(step, total int, probe chart.Probe) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProbeChart,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %d entries", step, total, probe.Date.Format(models.DateLayout), probe.Count),
		Data:    probe,
	}
}

func resolvedUpdate(res *chart.Resolution) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveChart,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Chart for %s (%s, %d entries)", res.Effective.Format(models.DateLayout), res.Origin, len(res.Entries)),
		Data:    res,
	}
}

func searchTracksUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Total:   total,
		Message: "Searching for tracks on Spotify...",
	}
}

func matchResultUpdate(step, total int, result models.MatchResult) ProgressUpdate {
	mark := "✓"
	if !result.Found() {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, result.Entry),
		Data:    result,
	}
}

func reportUpdate(path string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteReport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved %d unmatched songs to %s", count, path),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func playlistCreatedUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(added, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    added,
		Total:   total,
		Message: fmt.Sprintf("Added %d/%d tracks", added, total),
	}
}
