// Package availability computes bookable slot starts from business hours,
// existing bookings, and vendor-reported busy intervals.
package availability

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// DayWindow anchors HH:MM open/close clock strings onto the given date.
// Returns ok=false when either clock string is malformed. A window whose
// close is not after its open is valid input and simply yields no slots.
func DayWindow(day time.Time, open, close string) (Interval, bool) {
	openClock, err := time.Parse("15:04", open)
	if err != nil {
		return Interval{}, false
	}
	closeClock, err := time.Parse("15:04", close)
	if err != nil {
		return Interval{}, false
	}
	loc := day.Location()
	return Interval{
		Start: time.Date(day.Year(), day.Month(), day.Day(), openClock.Hour(), openClock.Minute(), 0, 0, loc),
		End:   time.Date(day.Year(), day.Month(), day.Day(), closeClock.Hour(), closeClock.Minute(), 0, 0, loc),
	}, true
}

// SlotStarts returns start times within [window.Start, window.End) where a
// booking of length duration would not overlap any busy interval. The cursor
// advances by step, which may be smaller than duration: overlapping candidate
// starts are offered and rejected individually.
//
// All times are expected to be in the same location (timezone).
func SlotStarts(window Interval, duration, step time.Duration, busy []Interval) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !window.End.After(window.Start) {
		return nil
	}

	var slots []time.Time
	for t := window.Start; !t.Add(duration).After(window.End); t = t.Add(step) {
		if !overlapsAny(t, t.Add(duration), busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// Half-open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
