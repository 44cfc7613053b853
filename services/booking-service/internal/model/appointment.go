package model

import (
	"errors"
	"time"
)

// ErrSlotConflict reports that a requested time overlaps an existing
// non-cancelled appointment for the same spa and location. Unlike other
// booking failures it is surfaced to callers so the race between two
// concurrent requests for one slot is visible, not silent.
var ErrSlotConflict = errors.New("time slot already booked")

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Appointment struct {
	ID              string
	SpaID           string
	ServiceID       string
	LocationID      string
	ClientName      string
	ClientEmail     string
	ClientPhone     string
	StartTime       time.Time
	DurationMinutes int
	Status          string
	CancelledAt     *time.Time
	CancelReason    string
	CreatedAt       time.Time
}

func (a Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// TimeSlot is a bookable window produced by an adapter or the internal
// generator. It is never persisted; availability is recomputed per request.
type TimeSlot struct {
	Start           time.Time
	DurationMinutes int
	ServiceID       string
	ProviderID      string
}
