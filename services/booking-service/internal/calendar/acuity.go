package calendar

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/velora-app/velora/services/booking-service/internal/model"
)

const defaultAcuityBaseURL = "https://acuityscheduling.com/api/v1"

// acuityProvider talks to Acuity Scheduling. Availability is a bearer-token
// GET; booking succeeds only on HTTP 201.
type acuityProvider struct {
	apiKey     string
	baseURL    string
	calendarID string
	httpc      *http.Client
}

func (p *acuityProvider) Name() string { return "acuity" }

type acuitySlot struct {
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Service  string `json:"service"`
}

func (p *acuityProvider) GetSlots(ctx context.Context, day time.Time) ([]model.TimeSlot, error) {
	if p.apiKey == "" {
		return nil, misconfigured("acuity", "get_slots", "api key not configured")
	}

	var raw []acuitySlot
	status, err := doVendorJSON(ctx, p.httpc, vendorRequest{
		Method: http.MethodGet,
		URL:    p.baseURL + "/availability/times",
		Query: url.Values{
			"date":       {day.Format("2006-01-02")},
			"calendarID": {p.calendarID},
		},
		Bearer: p.apiKey,
	}, &raw)
	if err != nil {
		return nil, unavailable("acuity", "get_slots", err)
	}
	if status != http.StatusOK {
		return nil, vendorStatus("acuity", "get_slots", status)
	}

	slots := make([]model.TimeSlot, 0, len(raw))
	for _, s := range raw {
		start, ok := parseVendorTime(s.Time, "")
		if !ok {
			continue
		}
		mins := s.Duration
		if mins <= 0 {
			mins = defaultSlotMinutes
		}
		slots = append(slots, model.TimeSlot{Start: start, DurationMinutes: mins, ServiceID: s.Service})
	}
	return slots, nil
}

func (p *acuityProvider) Book(ctx context.Context, req BookingRequest) (bool, error) {
	if p.apiKey == "" {
		return false, misconfigured("acuity", "book", "api key not configured")
	}

	status, err := doVendorJSON(ctx, p.httpc, vendorRequest{
		Method: http.MethodPost,
		URL:    p.baseURL + "/appointments",
		Body: map[string]any{
			"datetime":          req.Start.Format(time.RFC3339),
			"calendarID":        p.calendarID,
			"appointmentTypeID": req.ServiceID,
			"firstName":         req.ClientName,
			"email":             req.ClientEmail,
			"phone":             req.ClientPhone,
		},
		Bearer: p.apiKey,
	}, nil)
	if err != nil {
		return false, unavailable("acuity", "book", err)
	}
	return status == http.StatusCreated, nil
}
