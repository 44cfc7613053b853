package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/velora-app/velora/services/booking-service/internal/model"
)

const defaultSimplybookBaseURL = "https://user-api.simplybook.me"

// simplybookProvider speaks SimplyBook.me's JSON-RPC API. Every operation
// starts with a getToken round-trip, and availability requires the vendor's
// full getEventList/getUnitList/getWorkCalendar/getStartTimeList sequence —
// four network calls per query, with no caching between them.
type simplybookProvider struct {
	companyLogin string
	apiKey       string
	baseURL      string
	httpc        *http.Client
}

func (p *simplybookProvider) Name() string { return "simplybook" }

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *simplybookProvider) rpc(ctx context.Context, url, token string, id int, method string, params []any) (json.RawMessage, error) {
	headers := map[string]string{}
	if token != "" {
		headers["X-Company-Login"] = p.companyLogin
		headers["X-Token"] = token
	}
	if params == nil {
		params = []any{}
	}

	var env rpcEnvelope
	status, err := doVendorJSON(ctx, p.httpc, vendorRequest{
		Method: http.MethodPost,
		URL:    url,
		Body: map[string]any{
			"jsonrpc": "2.0",
			"method":  method,
			"params":  params,
			"id":      id,
		},
		Headers: headers,
	}, &env)
	if err != nil {
		return nil, unavailable("simplybook", method, err)
	}
	if status != http.StatusOK {
		return nil, vendorStatus("simplybook", method, status)
	}
	if env.Error != nil {
		return nil, unavailable("simplybook", method, fmt.Errorf("rpc error %d: %s", env.Error.Code, env.Error.Message))
	}
	return env.Result, nil
}

func (p *simplybookProvider) authenticate(ctx context.Context) (string, error) {
	if p.companyLogin == "" || p.apiKey == "" {
		return "", misconfigured("simplybook", "auth", "company login or api key not configured")
	}
	raw, err := p.rpc(ctx, p.baseURL+"/login", "", 1, "getToken", []any{p.companyLogin, p.apiKey})
	if err != nil {
		return "", err
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil || token == "" {
		return "", unavailable("simplybook", "auth", fmt.Errorf("empty token in getToken result"))
	}
	return token, nil
}

func (p *simplybookProvider) GetSlots(ctx context.Context, day time.Time) ([]model.TimeSlot, error) {
	token, err := p.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	// The vendor's availability model hangs off events (services), units
	// (staff), and the monthly work calendar; all three are fetched before
	// the start-time list is meaningful.
	if _, err := p.rpc(ctx, p.baseURL, token, 2, "getEventList", nil); err != nil {
		return nil, err
	}
	if _, err := p.rpc(ctx, p.baseURL, token, 3, "getUnitList", nil); err != nil {
		return nil, err
	}
	if _, err := p.rpc(ctx, p.baseURL, token, 4, "getWorkCalendar", []any{day.Year(), int(day.Month()), nil}); err != nil {
		return nil, err
	}

	dateStr := day.Format("2006-01-02")
	raw, err := p.rpc(ctx, p.baseURL, token, 5, "getStartTimeList", []any{dateStr, nil, nil})
	if err != nil {
		return nil, err
	}

	var clocks []string
	if err := json.Unmarshal(raw, &clocks); err != nil {
		return nil, unavailable("simplybook", "getStartTimeList", err)
	}

	slots := make([]model.TimeSlot, 0, len(clocks))
	for _, clock := range clocks {
		start, ok := parseVendorTime(dateStr+" "+clock, "2006-01-02 15:04")
		if !ok {
			continue
		}
		slots = append(slots, model.TimeSlot{Start: start, DurationMinutes: defaultSlotMinutes})
	}
	return slots, nil
}

func (p *simplybookProvider) Book(ctx context.Context, req BookingRequest) (bool, error) {
	token, err := p.authenticate(ctx)
	if err != nil {
		return false, err
	}

	raw, err := p.rpc(ctx, p.baseURL, token, 6, "bookAppointment", []any{
		req.Start.Format("2006-01-02"),
		req.Start.Format("15:04"),
		req.ServiceID,
		req.ProviderID,
		map[string]string{
			"name":  req.ClientName,
			"email": req.ClientEmail,
			"phone": req.ClientPhone,
		},
	})
	if err != nil {
		return false, err
	}

	// Any truthy result field confirms the booking.
	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return false, unavailable("simplybook", "bookAppointment", err)
	}
	switch v := result.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		return v != "", nil
	case float64:
		return v != 0, nil
	default:
		return true, nil
	}
}
