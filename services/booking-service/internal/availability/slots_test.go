package availability

import (
	"testing"
	"time"
)

func mustWindow(t *testing.T, day time.Time, open, close string) Interval {
	t.Helper()
	w, ok := DayWindow(day, open, close)
	if !ok {
		t.Fatalf("DayWindow(%s, %s) failed", open, close)
	}
	return w
}

func TestSlotStarts_ExcludesBookedHour(t *testing.T) {
	day := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	win := mustWindow(t, day, "09:00", "17:00")
	busy := []Interval{
		{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
	}

	slots := SlotStarts(win, time.Hour, time.Hour, busy)
	if len(slots) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Format(time.RFC3339))
	}
	if !slots[1].Equal(day.Add(11 * time.Hour)) {
		t.Fatalf("expected 10:00 excluded, got %s", slots[1].Format(time.RFC3339))
	}
	if !slots[6].Equal(day.Add(16 * time.Hour)) {
		t.Fatalf("expected last slot 16:00, got %s", slots[6].Format(time.RFC3339))
	}
}

func TestSlotStarts_NeverOverlapsBusy(t *testing.T) {
	day := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	win := mustWindow(t, day, "09:00", "20:00")
	busy := []Interval{
		{Start: day.Add(9*time.Hour + 45*time.Minute), End: day.Add(10*time.Hour + 30*time.Minute)},
		{Start: day.Add(13 * time.Hour), End: day.Add(14*time.Hour + 15*time.Minute)},
	}

	duration := 45 * time.Minute
	for _, s := range SlotStarts(win, duration, 30*time.Minute, busy) {
		end := s.Add(duration)
		for _, b := range busy {
			if s.Before(b.End) && b.Start.Before(end) {
				t.Fatalf("slot %s overlaps busy [%s, %s)", s.Format("15:04"), b.Start.Format("15:04"), b.End.Format("15:04"))
			}
		}
	}
}

func TestSlotStarts_CloseNotAfterOpen(t *testing.T) {
	day := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	for _, tc := range [][2]string{{"17:00", "09:00"}, {"09:00", "09:00"}} {
		win := mustWindow(t, day, tc[0], tc[1])
		if got := SlotStarts(win, time.Hour, time.Hour, nil); len(got) != 0 {
			t.Fatalf("hours %s-%s: expected zero slots, got %d", tc[0], tc[1], len(got))
		}
	}
}

func TestSlotStarts_StepSmallerThanDuration(t *testing.T) {
	// 30-minute stride with 60-minute slots offers overlapping candidates;
	// each is accepted or rejected on its own.
	day := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	win := mustWindow(t, day, "09:00", "11:00")
	busy := []Interval{
		{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
	}

	slots := SlotStarts(win, time.Hour, 30*time.Minute, busy)
	if len(slots) != 1 {
		t.Fatalf("expected only 09:00 to fit, got %d slots", len(slots))
	}
	if !slots[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected 09:00, got %s", slots[0].Format("15:04"))
	}
}

func TestDayWindow_BadClock(t *testing.T) {
	day := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	if _, ok := DayWindow(day, "9am", "17:00"); ok {
		t.Fatal("expected failure for malformed open clock")
	}
	if _, ok := DayWindow(day, "09:00", ""); ok {
		t.Fatal("expected failure for empty close clock")
	}
}
