package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/velora-app/velora/services/booking-service/internal/availability"
	"github.com/velora-app/velora/services/booking-service/internal/model"
)

const (
	defaultGoogleAPIBase  = "https://www.googleapis.com/calendar/v3"
	defaultGoogleTokenURL = "https://oauth2.googleapis.com/token"
)

type googleCredentials struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
}

func (c googleCredentials) complete() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && c.ClientID != "" && c.ClientSecret != ""
}

// googleProvider reads free/busy from the spa's primary Google calendar and
// derives open slots with the reconciler; booking inserts a calendar event
// with UTC start/end. Tokens refresh through the standard OAuth2 flow.
type googleProvider struct {
	creds    googleCredentials
	apiBase  string
	tokenURL string
	httpc    *http.Client
	// tokenSource overrides the refresh-token flow in tests.
	tokenSource oauth2.TokenSource
}

func (p *googleProvider) Name() string { return "google_calendar" }

func (p *googleProvider) client(ctx context.Context) (*http.Client, error) {
	ts := p.tokenSource
	if ts == nil {
		if !p.creds.complete() {
			return nil, misconfigured("google_calendar", "auth", "incomplete oauth2 credentials")
		}
		conf := &oauth2.Config{
			ClientID:     p.creds.ClientID,
			ClientSecret: p.creds.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: p.tokenURL},
			Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
		}
		ts = conf.TokenSource(ctx, &oauth2.Token{
			AccessToken:  p.creds.AccessToken,
			RefreshToken: p.creds.RefreshToken,
		})
	}
	if p.httpc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpc)
	}
	return oauth2.NewClient(ctx, ts), nil
}

func (p *googleProvider) GetSlots(ctx context.Context, day time.Time) ([]model.TimeSlot, error) {
	client, err := p.client(ctx)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())

	var out struct {
		Calendars map[string]struct {
			Busy []struct {
				Start string `json:"start"`
				End   string `json:"end"`
			} `json:"busy"`
		} `json:"calendars"`
	}
	status, err := doVendorJSON(ctx, client, vendorRequest{
		Method: http.MethodPost,
		URL:    p.apiBase + "/freeBusy",
		Body: map[string]any{
			"timeMin": dayStart.Format(time.RFC3339),
			"timeMax": dayEnd.Format(time.RFC3339),
			"items":   []map[string]string{{"id": "primary"}},
		},
	}, &out)
	if err != nil {
		return nil, unavailable("google_calendar", "get_slots", err)
	}
	if status != http.StatusOK {
		return nil, vendorStatus("google_calendar", "get_slots", status)
	}

	var busy []availability.Interval
	for _, period := range out.Calendars["primary"].Busy {
		start, okS := parseVendorTime(period.Start, "")
		end, okE := parseVendorTime(period.End, "")
		if !okS || !okE {
			continue
		}
		busy = append(busy, availability.Interval{Start: start.In(day.Location()), End: end.In(day.Location())})
	}

	starts := availability.FreeFromBusy(day, busy)
	slots := make([]model.TimeSlot, 0, len(starts))
	for _, s := range starts {
		slots = append(slots, model.TimeSlot{Start: s, DurationMinutes: defaultSlotMinutes})
	}
	return slots, nil
}

func (p *googleProvider) Book(ctx context.Context, req BookingRequest) (bool, error) {
	client, err := p.client(ctx)
	if err != nil {
		return false, err
	}

	startUTC := req.Start.UTC()
	endUTC := startUTC.Add(time.Duration(req.duration()) * time.Minute)

	var out struct {
		ID string `json:"id"`
	}
	status, err := doVendorJSON(ctx, client, vendorRequest{
		Method: http.MethodPost,
		URL:    p.apiBase + "/calendars/primary/events",
		Body: map[string]any{
			"summary":     fmt.Sprintf("Spa Appointment - %s", req.ServiceID),
			"description": fmt.Sprintf("Client: %s\nPhone: %s", req.ClientName, req.ClientPhone),
			"start": map[string]string{
				"dateTime": startUTC.Format(time.RFC3339),
				"timeZone": "UTC",
			},
			"end": map[string]string{
				"dateTime": endUTC.Format(time.RFC3339),
				"timeZone": "UTC",
			},
		},
	}, &out)
	if err != nil {
		return false, unavailable("google_calendar", "book", err)
	}
	if status < 200 || status >= 300 {
		return false, vendorStatus("google_calendar", "book", status)
	}
	return out.ID != "", nil
}
