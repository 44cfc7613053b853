package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/velora-app/velora/services/booking-service/internal/availability"
	"github.com/velora-app/velora/services/booking-service/internal/model"
)

// internalProvider serves spas without an external calendar: availability
// comes from the spa's own business hours minus locally stored appointments,
// and bookings are rows in our database.
type internalProvider struct {
	appts AppointmentStore
	cfg   model.CalendarConfig
}

func newInternalProvider(appts AppointmentStore, cfg model.CalendarConfig) *internalProvider {
	return &internalProvider{appts: appts, cfg: cfg}
}

func (p *internalProvider) Name() string { return "internal" }

func (p *internalProvider) GetSlots(ctx context.Context, day time.Time) ([]model.TimeSlot, error) {
	hours := model.DefaultBusinessHours()
	if p.cfg.Hours != nil {
		hours = *p.cfg.Hours
	}
	dh := hours.For(day)
	window, ok := availability.DayWindow(day, dh.Open, dh.Close)
	if !ok {
		return nil, misconfigured("internal", "get_slots", fmt.Sprintf("bad business hours %q-%q", dh.Open, dh.Close))
	}

	existing, err := p.appts.ListForDay(ctx, p.cfg.SpaID, "", day)
	if err != nil {
		return nil, unavailable("internal", "get_slots", err)
	}
	busy := busyIntervals(existing)

	step := time.Duration(defaultSlotMinutes) * time.Minute
	starts := availability.SlotStarts(window, step, step, busy)
	slots := make([]model.TimeSlot, 0, len(starts))
	for _, s := range starts {
		slots = append(slots, model.TimeSlot{Start: s, DurationMinutes: defaultSlotMinutes})
	}
	return slots, nil
}

func (p *internalProvider) Book(ctx context.Context, req BookingRequest) (bool, error) {
	appt := &model.Appointment{
		SpaID:           p.cfg.SpaID,
		ServiceID:       req.ServiceID,
		LocationID:      req.LocationID,
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		ClientPhone:     req.ClientPhone,
		StartTime:       req.Start,
		DurationMinutes: req.duration(),
		Status:          model.StatusConfirmed,
	}
	if _, err := p.appts.Create(ctx, appt); err != nil {
		return false, err
	}
	return true, nil
}

func busyIntervals(appts []model.Appointment) []availability.Interval {
	busy := make([]availability.Interval, 0, len(appts))
	for _, a := range appts {
		if a.Status == model.StatusCancelled {
			continue
		}
		mins := a.DurationMinutes
		if mins <= 0 {
			mins = defaultSlotMinutes
		}
		busy = append(busy, availability.Interval{
			Start: a.StartTime,
			End:   a.StartTime.Add(time.Duration(mins) * time.Minute),
		})
	}
	return busy
}
