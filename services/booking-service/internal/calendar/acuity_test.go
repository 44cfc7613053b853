package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAcuityGetSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/availability/times" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("date"); got != "2024-06-17" {
			t.Errorf("date query = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"time": "2024-06-17T10:00:00Z", "duration": 30, "service": "massage"},
			{"time": "2024-06-17T11:00:00Z", "duration": 0}
		]`))
	}))
	defer srv.Close()

	p := &acuityProvider{apiKey: "key-1", baseURL: srv.URL, calendarID: "spa-1", httpc: srv.Client()}
	slots, err := p.GetSlots(context.Background(), time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetSlots failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].DurationMinutes != 30 || slots[0].ServiceID != "massage" {
		t.Fatalf("first slot mapped wrong: %+v", slots[0])
	}
	// Zero vendor duration falls back to the default slot length.
	if slots[1].DurationMinutes != 60 {
		t.Fatalf("second slot duration = %d, want 60", slots[1].DurationMinutes)
	}
}

func TestAcuityGetSlots_MissingKey(t *testing.T) {
	p := &acuityProvider{httpc: newVendorHTTPClient()}
	_, err := p.GetSlots(context.Background(), time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC))

	var ve *VendorError
	if !errors.As(err, &ve) || ve.Kind != KindMisconfigured {
		t.Fatalf("expected misconfigured VendorError, got %v", err)
	}
}

func TestAcuityGetSlots_VendorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := &acuityProvider{apiKey: "key-1", baseURL: srv.URL, httpc: srv.Client()}
	_, err := p.GetSlots(context.Background(), time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC))

	var ve *VendorError
	if !errors.As(err, &ve) || ve.Kind != KindVendorUnavailable {
		t.Fatalf("expected vendor_unavailable VendorError, got %v", err)
	}
}

func TestAcuityBook(t *testing.T) {
	var gotBody bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/appointments" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		gotBody = true
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := &acuityProvider{apiKey: "key-1", baseURL: srv.URL, calendarID: "spa-1", httpc: srv.Client()}
	booked, err := p.Book(context.Background(), BookingRequest{
		ServiceID:  "svc-1",
		ClientName: "Dana",
		Start:      time.Date(2024, 6, 17, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if !booked || !gotBody {
		t.Fatal("expected booking to be placed")
	}
}

func TestAcuityBook_NonCreatedIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := &acuityProvider{apiKey: "key-1", baseURL: srv.URL, httpc: srv.Client()}
	booked, err := p.Book(context.Background(), BookingRequest{ClientName: "Dana", Start: time.Now()})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if booked {
		t.Fatal("only 201 confirms an acuity booking")
	}
}
