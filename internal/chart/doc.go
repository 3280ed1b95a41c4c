// Package chart fetches weekly chart snapshots and resolves a user date to the nearest complete chart.
//
// # Publication dates
//
// Charts are published on a fixed weekday (Saturday for the Billboard Hot 100).
// [Normalize] maps any date to the most recent publication day on or before it,
// and every date passed to a [Source] goes through it first.
//
// # Sources
//
// A [Source] returns a [models.ChartSnapshot] for a date and never fails: transport errors,
// non-200 responses and unrecognised page layouts all degrade to an empty snapshot.
// [BillboardSource] implements it over HTTP, parsing the current page layout and falling back
// to the legacy layout when the current one yields fewer than LegacyThreshold entries.
//
// # Resolution
//
// [Resolver.Resolve] fetches the normalized date and returns it when it has at least MinComplete entries.
// Otherwise it walks backward StepDays at a time, re-normalizing each probe and fetching each
// publication date at most once, for at most MaxAttempts steps (the requested date included).
// Exhausting the steps yields a [*NoValidChartError] that wraps [shared.ErrNoValidChart].
//
// The [Resolution] records whether the requested date was moved to a publication day
// ([Resolution.Adjusted]) and whether the returned chart is the requested one or a fallback
// ([Resolution.Origin]) so the CLI can tell the user which happened.
package chart
