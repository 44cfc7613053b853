package calendar

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/velora-app/velora/services/booking-service/internal/model"
)

const defaultCalendlyBaseURL = "https://api.calendly.com"

// calendlyProvider queries Calendly's available-times endpoint over the
// requested day, end pinned to 23:59. Calendly reports slot lengths in its
// own event types, so every mapped slot carries the default 60 minutes.
type calendlyProvider struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func (p *calendlyProvider) Name() string { return "calendly" }

func (p *calendlyProvider) GetSlots(ctx context.Context, day time.Time) ([]model.TimeSlot, error) {
	if p.apiKey == "" {
		return nil, misconfigured("calendly", "get_slots", "api key not configured")
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 0, 0, day.Location())

	var out struct {
		Collection []struct {
			StartTime string `json:"start_time"`
		} `json:"collection"`
	}
	status, err := doVendorJSON(ctx, p.httpc, vendorRequest{
		Method: http.MethodGet,
		URL:    p.baseURL + "/scheduled_events/available_times",
		Query: url.Values{
			"start_time": {dayStart.Format(time.RFC3339)},
			"end_time":   {dayEnd.Format(time.RFC3339)},
		},
		Bearer: p.apiKey,
	}, &out)
	if err != nil {
		return nil, unavailable("calendly", "get_slots", err)
	}
	if status != http.StatusOK {
		return nil, vendorStatus("calendly", "get_slots", status)
	}

	slots := make([]model.TimeSlot, 0, len(out.Collection))
	for _, item := range out.Collection {
		start, ok := parseVendorTime(item.StartTime, "")
		if !ok {
			continue
		}
		slots = append(slots, model.TimeSlot{Start: start, DurationMinutes: defaultSlotMinutes})
	}
	return slots, nil
}

func (p *calendlyProvider) Book(ctx context.Context, req BookingRequest) (bool, error) {
	if p.apiKey == "" {
		return false, misconfigured("calendly", "book", "api key not configured")
	}

	status, err := doVendorJSON(ctx, p.httpc, vendorRequest{
		Method: http.MethodPost,
		URL:    p.baseURL + "/scheduled_events",
		Body: map[string]any{
			"start_time": req.Start.Format(time.RFC3339),
			"name":       req.ClientName,
			"email":      req.ClientEmail,
		},
		Bearer: p.apiKey,
	}, nil)
	if err != nil {
		return false, unavailable("calendly", "book", err)
	}
	return status == http.StatusCreated, nil
}
