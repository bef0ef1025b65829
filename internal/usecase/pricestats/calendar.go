package pricestats

import (
	"slices"
	"time"

	"github.com/essentialstracker/backend/internal/domain"
)

// Week identifies an ISO 8601 week together with its Monday
// Year and Number come from the Thursday of the week, so Dec 29-31 can belong to week 1
// of the next year and Jan 1-3 to week 52/53 of the previous one
type Week struct {
	Year   int
	Number int
	Start  time.Time // Monday 00:00 in the location the week was computed in
}

// WeekOf returns the ISO week containing t, evaluated in loc
// Both the grouping key and the Monday anchor are derived here so they can never disagree
func WeekOf(t time.Time, loc *time.Location) Week {
	if loc == nil {
		loc = time.UTC
	}

	local := t.In(loc)

	// Monday=1 ... Sunday=7
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	monday := time.Date(local.Year(), local.Month(), local.Day()-(weekday-1), 0, 0, 0, 0, loc)

	// The Monday always shares the ISO week of every other day of its week
	year, number := monday.ISOWeek()

	return Week{
		Year:   year,
		Number: number,
		Start:  monday,
	}
}

func (w Week) key() weekKey {
	return weekKey{year: w.Year, number: w.Number}
}

type weekKey struct {
	year   int
	number int
}

// sortedCopy returns the observations in ascending order without touching the caller's slice
func sortedCopy(observations []domain.Observation) []domain.Observation {
	sorted := slices.Clone(observations)
	slices.SortFunc(sorted, domain.CompareObservations)
	return sorted
}
