package availability

import (
	"sort"
	"time"
)

// The free/busy reconciliation path works against a fixed business-day
// window rather than the tenant's configured hours. External calendars own
// their schedule end to end, so the window here only bounds how much of the
// vendor's day we offer.
const (
	freeBusyWindowOpen  = 9  // 09:00
	freeBusyWindowClose = 17 // 17:00

	freeBusySlotLength = time.Hour
)

// FreeFromBusy converts vendor-reported busy intervals for one day into the
// complement set of free slot starts, quantized to whole hours.
//
// Slots fill each gap greedily in 60-minute strides: a gap that is not a
// multiple of an hour still yields a final full-hour slot, which can extend
// into the following busy interval or past the window close. Callers that
// need exact containment must trim on their side.
func FreeFromBusy(day time.Time, busy []Interval) []time.Time {
	loc := day.Location()
	cursor := time.Date(day.Year(), day.Month(), day.Day(), freeBusyWindowOpen, 0, 0, 0, loc)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), freeBusyWindowClose, 0, 0, 0, loc)

	sorted := make([]Interval, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var free []time.Time
	for _, b := range sorted {
		for cursor.Before(b.Start) {
			free = append(free, cursor)
			cursor = cursor.Add(freeBusySlotLength)
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	for cursor.Before(windowEnd) {
		free = append(free, cursor)
		cursor = cursor.Add(freeBusySlotLength)
	}
	return free
}
