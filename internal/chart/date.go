package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/shared"
)

// ParseDate parses a YYYY-MM-DD string into a UTC midnight [time.Time].
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", shared.ErrInvalidDate, s)
	}
	return t, nil
}

// Normalize returns the most recent date on or before t that falls on weekday.
func Normalize(t time.Time, weekday time.Weekday) time.Time {
	offset := (int(t.Weekday()) - int(weekday) + 7) % 7
	return t.AddDate(0, 0, -offset)
}

// ProbeDates lists the publication dates a [Resolver] would fetch, in order, starting from start.
//
// It is the deduplicated sequence of normalized dates visited by maxAttempts steps of stepDays.
func ProbeDates(start time.Time, weekday time.Weekday, maxAttempts, stepDays int) []time.Time {
	if stepDays <= 0 {
		stepDays = 1
	}

	var dates []time.Time
	seen := make(map[string]bool)
	probe := Normalize(start, weekday)
	for range maxAttempts {
		target := Normalize(probe, weekday)
		key := target.Format(models.DateLayout)
		if !seen[key] {
			seen[key] = true
			dates = append(dates, target)
		}
		probe = probe.AddDate(0, 0, -stepDays)
	}
	return dates
}
