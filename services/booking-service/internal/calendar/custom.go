package calendar

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/velora-app/velora/services/booking-service/internal/model"
)

// customProvider integrates vendors we have no dedicated adapter for.
// Everything — endpoints, methods, parameter names, response shape — comes
// from the tenant's calendar settings, with defaults for any absent field.
type customProvider struct {
	spaID     string
	settings  model.CustomCalendarSettings
	apiKey    string
	basicPass string
	httpc     *http.Client
}

func (p *customProvider) Name() string { return "custom" }

type customSettings struct {
	model.CustomCalendarSettings
}

func (s customSettings) slotsEndpoint() string   { return orDefault(s.SlotsEndpoint, "/available-slots") }
func (s customSettings) slotsMethod() string     { return strings.ToUpper(orDefault(s.SlotsMethod, http.MethodGet)) }
func (s customSettings) bookingEndpoint() string { return orDefault(s.BookingEndpoint, "/appointments") }
func (s customSettings) bookingMethod() string {
	return strings.ToUpper(orDefault(s.BookingMethod, http.MethodPost))
}
func (s customSettings) dateParamName() string  { return orDefault(s.DateParamName, "date") }
func (s customSettings) dateFormat() string     { return orDefault(s.DateFormat, "2006-01-02") }
func (s customSettings) responsePath() string   { return orDefault(s.SlotsResponsePath, "slots") }
func (s customSettings) startTimeField() string { return orDefault(s.StartTimeField, "start_time") }
func (s customSettings) durationField() string  { return orDefault(s.DurationField, "duration") }

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func (p *customProvider) auth(vr *vendorRequest) {
	switch strings.ToLower(orDefault(p.settings.AuthType, "api_key")) {
	case "basic_auth":
		vr.BasicUser = p.settings.Username
		vr.BasicPass = p.basicPass
	default:
		vr.Bearer = p.apiKey
	}
}

func (p *customProvider) GetSlots(ctx context.Context, day time.Time) ([]model.TimeSlot, error) {
	s := customSettings{p.settings}
	base := strings.TrimRight(s.APIURL, "/")
	if base == "" {
		return nil, misconfigured("custom", "get_slots", "api url not configured for spa "+p.spaID)
	}

	dateParam := day.Format(s.dateFormat())
	vr := vendorRequest{
		Method: s.slotsMethod(),
		URL:    base + s.slotsEndpoint(),
	}
	if vr.Method == http.MethodGet {
		vr.Query = url.Values{s.dateParamName(): {dateParam}}
	} else {
		vr.Body = map[string]string{s.dateParamName(): dateParam}
	}
	p.auth(&vr)

	var payload any
	status, err := doVendorJSON(ctx, p.httpc, vr, &payload)
	if err != nil {
		return nil, unavailable("custom", "get_slots", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, vendorStatus("custom", "get_slots", status)
	}

	items, _ := lookupPath(payload, s.responsePath()).([]any)
	slots := make([]model.TimeSlot, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rawStart, _ := m[s.startTimeField()].(string)
		start, ok := parseVendorTime(rawStart, s.StartTimeFormat)
		if !ok {
			continue
		}
		mins := defaultSlotMinutes
		if d, ok := m[s.durationField()].(float64); ok && d > 0 {
			mins = int(d)
		}
		slots = append(slots, model.TimeSlot{Start: start, DurationMinutes: mins})
	}
	return slots, nil
}

func (p *customProvider) Book(ctx context.Context, req BookingRequest) (bool, error) {
	s := customSettings{p.settings}
	base := strings.TrimRight(s.APIURL, "/")
	if base == "" {
		return false, misconfigured("custom", "book", "api url not configured for spa "+p.spaID)
	}

	vr := vendorRequest{
		Method: s.bookingMethod(),
		URL:    base + s.bookingEndpoint(),
		Body: map[string]any{
			s.startTimeField(): req.Start.Format(time.RFC3339),
			s.durationField():  req.duration(),
			"service_id":       req.ServiceID,
			"client_name":      req.ClientName,
			"client_email":     req.ClientEmail,
			"client_phone":     req.ClientPhone,
		},
	}
	p.auth(&vr)

	status, err := doVendorJSON(ctx, p.httpc, vr, nil)
	if err != nil {
		return false, unavailable("custom", "book", err)
	}
	return status == http.StatusOK || status == http.StatusCreated, nil
}

// lookupPath walks a dotted path ("data.slots") through nested JSON objects.
// Returns nil when any segment is missing or not an object.
func lookupPath(data any, path string) any {
	current := data
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	return current
}
