package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/velora-app/velora/services/booking-service/internal/calendar"
	"github.com/velora-app/velora/services/booking-service/internal/model"
)

type fakeConnector struct {
	slots    []model.TimeSlot
	booked   bool
	bookErr  error
	lastBook calendar.BookingRequest
}

func (f *fakeConnector) GetAvailableSlots(_ context.Context, _ string, _ time.Time) []model.TimeSlot {
	return f.slots
}

func (f *fakeConnector) BookAppointment(_ context.Context, _ string, req calendar.BookingRequest) (bool, error) {
	f.lastBook = req
	return f.booked, f.bookErr
}

type fakeAppts struct {
	forDay    []model.Appointment
	bySpa     []model.Appointment
	cancelErr   error
	completeErr error
}

func (f *fakeAppts) ListForDay(_ context.Context, _, _ string, _ time.Time) ([]model.Appointment, error) {
	return f.forDay, nil
}

func (f *fakeAppts) ListBySpa(_ context.Context, _ string, _ int) ([]model.Appointment, error) {
	return f.bySpa, nil
}

func (f *fakeAppts) Cancel(_ context.Context, _, _, _ string) (time.Time, error) {
	if f.cancelErr != nil {
		return time.Time{}, f.cancelErr
	}
	return time.Date(2024, 6, 16, 12, 0, 0, 0, time.UTC), nil
}

func (f *fakeAppts) Complete(_ context.Context, _, _ string) error {
	return f.completeErr
}

type fakeCatalog struct {
	service    model.Service
	serviceErr error
	location   model.Location
	locErr     error
}

func (f *fakeCatalog) GetService(_ context.Context, _, _ string) (model.Service, error) {
	return f.service, f.serviceErr
}

func (f *fakeCatalog) GetLocation(_ context.Context, _, _ string) (model.Location, error) {
	return f.location, f.locErr
}

type fakeConfigs struct {
	cfg   model.CalendarConfig
	found bool
}

func (f *fakeConfigs) CalendarConfig(_ context.Context, _ string) (model.CalendarConfig, bool, error) {
	return f.cfg, f.found, nil
}

func newTestHandler(conn *fakeConnector, appts *fakeAppts, cat *fakeCatalog, cfgs *fakeConfigs) *BookingHandler {
	if conn == nil {
		conn = &fakeConnector{}
	}
	if appts == nil {
		appts = &fakeAppts{}
	}
	if cat == nil {
		cat = &fakeCatalog{locErr: pgx.ErrNoRows, serviceErr: pgx.ErrNoRows}
	}
	if cfgs == nil {
		cfgs = &fakeConfigs{}
	}
	return NewBookingHandler(conn, appts, cat, cfgs, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSlots(t *testing.T) {
	conn := &fakeConnector{slots: []model.TimeSlot{
		{Start: time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC), DurationMinutes: 60},
		{Start: time.Date(2024, 6, 17, 10, 0, 0, 0, time.UTC)},
	}}
	h := newTestHandler(conn, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?spa_id=spa-1&date=2024-06-17", nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(items))
	}
	// A zero duration slot is presented with the 60-minute default.
	if items[1]["duration_minutes"].(float64) != 60 {
		t.Fatalf("duration_minutes = %v", items[1]["duration_minutes"])
	}
}

func TestSlots_MissingParams(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?spa_id=spa-1", nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBook_Created(t *testing.T) {
	conn := &fakeConnector{booked: true}
	h := newTestHandler(conn, nil, nil, nil)

	body := `{"spa_id":"spa-1","client_name":"Dana","start_time":"2024-06-17T10:00:00Z","duration_minutes":45}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if conn.lastBook.DurationMinutes != 45 {
		t.Fatalf("duration forwarded = %d", conn.lastBook.DurationMinutes)
	}
}

func TestBook_ServiceDurationLookup(t *testing.T) {
	conn := &fakeConnector{booked: true}
	cat := &fakeCatalog{service: model.Service{ID: "svc-1", DurationMinutes: 75}, locErr: pgx.ErrNoRows}
	h := newTestHandler(conn, nil, cat, nil)

	body := `{"spa_id":"spa-1","service_id":"svc-1","client_name":"Dana","start_time":"2024-06-17T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if conn.lastBook.DurationMinutes != 75 {
		t.Fatalf("duration = %d, want service's 75", conn.lastBook.DurationMinutes)
	}
}

func TestBook_Conflict(t *testing.T) {
	conn := &fakeConnector{bookErr: model.ErrSlotConflict}
	h := newTestHandler(conn, nil, nil, nil)

	body := `{"spa_id":"spa-1","client_name":"Dana","start_time":"2024-06-17T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestBook_VendorDeclined(t *testing.T) {
	h := newTestHandler(&fakeConnector{booked: false}, nil, nil, nil)

	body := `{"spa_id":"spa-1","client_name":"Dana","start_time":"2024-06-17T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp bookResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Booked {
		t.Fatal("expected booked=false")
	}
}

func TestAvailable_ServiceSizedSlots(t *testing.T) {
	cat := &fakeCatalog{
		service: model.Service{ID: "svc-1", DurationMinutes: 90},
		locErr:  pgx.ErrNoRows,
	}
	cfgs := &fakeConfigs{
		cfg: model.CalendarConfig{
			SpaID: "spa-1",
			Hours: &model.BusinessHours{
				Weekday: model.DayHours{Open: "09:00", Close: "12:00"},
				Weekend: model.DayHours{Open: "09:00", Close: "12:00"},
			},
		},
		found: true,
	}
	h := newTestHandler(nil, &fakeAppts{}, cat, cfgs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/available?spa_id=spa-1&service_id=svc-1&date=2024-06-17", nil)
	rec := httptest.NewRecorder()
	h.Available(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []slotItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	// 09:00-12:00 window, 90-minute service on a 30-minute grid: last start 10:30.
	if len(items) != 4 {
		t.Fatalf("expected 4 slots, got %d: %+v", len(items), items)
	}
	if items[0].StartTime != "2024-06-17T09:00:00Z" {
		t.Fatalf("first start = %s", items[0].StartTime)
	}
	if items[3].StartTime != "2024-06-17T10:30:00Z" {
		t.Fatalf("last start = %s", items[3].StartTime)
	}
}

func TestAvailable_ExistingAppointmentBlocks(t *testing.T) {
	cat := &fakeCatalog{service: model.Service{ID: "svc-1", DurationMinutes: 60}, locErr: pgx.ErrNoRows}
	cfgs := &fakeConfigs{
		cfg: model.CalendarConfig{
			SpaID: "spa-1",
			Hours: &model.BusinessHours{
				Weekday: model.DayHours{Open: "09:00", Close: "11:00"},
				Weekend: model.DayHours{Open: "09:00", Close: "11:00"},
			},
		},
		found: true,
	}
	appts := &fakeAppts{forDay: []model.Appointment{{
		StartTime:       time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          model.StatusConfirmed,
	}}}
	h := newTestHandler(nil, appts, cat, cfgs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/available?spa_id=spa-1&service_id=svc-1&date=2024-06-17", nil)
	rec := httptest.NewRecorder()
	h.Available(rec, req)

	var items []slotItem
	_ = json.Unmarshal(rec.Body.Bytes(), &items)
	// Only 10:00 survives: 09:00 and 09:30 overlap the existing booking.
	if len(items) != 1 || items[0].StartTime != "2024-06-17T10:00:00Z" {
		t.Fatalf("unexpected slots: %+v", items)
	}
}

func TestAvailable_ServiceNotFound(t *testing.T) {
	h := newTestHandler(nil, nil, &fakeCatalog{serviceErr: pgx.ErrNoRows, locErr: pgx.ErrNoRows}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/available?spa_id=spa-1&service_id=missing&date=2024-06-17", nil)
	rec := httptest.NewRecorder()
	h.Available(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestList(t *testing.T) {
	cancelledAt := time.Date(2024, 6, 16, 12, 0, 0, 0, time.UTC)
	appts := &fakeAppts{bySpa: []model.Appointment{
		{
			ID:              "a-1",
			ServiceID:       "svc-1",
			ClientName:      "Dana",
			StartTime:       time.Date(2024, 6, 17, 10, 0, 0, 0, time.UTC),
			DurationMinutes: 60,
			Status:          model.StatusConfirmed,
			CreatedAt:       time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC),
		},
		{
			ID:              "a-2",
			ServiceID:       "svc-1",
			ClientName:      "Eli",
			StartTime:       time.Date(2024, 6, 18, 10, 0, 0, 0, time.UTC),
			DurationMinutes: 30,
			Status:          model.StatusCancelled,
			CancelledAt:     &cancelledAt,
			CreatedAt:       time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
		},
	}}
	h := newTestHandler(nil, appts, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set("X-Spa-Id", "spa-1")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []listAppointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].EndTime != "2024-06-17T11:00:00Z" {
		t.Fatalf("end_time = %s", items[0].EndTime)
	}
	if items[1].CancelledAt == "" {
		t.Fatal("cancelled appointment missing cancelled_at")
	}
}

func TestCancel(t *testing.T) {
	h := newTestHandler(nil, &fakeAppts{}, nil, nil)
	body := `{"spa_id":"spa-1","appointment_id":"a-1","reason":"client request"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp cancelResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != model.StatusCancelled || resp.CancelledAt == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestComplete(t *testing.T) {
	h := newTestHandler(nil, &fakeAppts{}, nil, nil)
	body := `{"spa_id":"spa-1","appointment_id":"a-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/complete", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Complete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != model.StatusCompleted {
		t.Fatalf("status field = %q", resp["status"])
	}
}

func TestComplete_NotFound(t *testing.T) {
	h := newTestHandler(nil, &fakeAppts{completeErr: pgx.ErrNoRows}, nil, nil)
	body := `{"spa_id":"spa-1","appointment_id":"missing"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/complete", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Complete(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCancel_NotFound(t *testing.T) {
	h := newTestHandler(nil, &fakeAppts{cancelErr: pgx.ErrNoRows}, nil, nil)
	body := `{"spa_id":"spa-1","appointment_id":"missing"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
