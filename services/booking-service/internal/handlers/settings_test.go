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

	"github.com/velora-app/velora/services/booking-service/internal/model"
)

type fakeConfigWriter struct {
	fakeConfigs
	upserted []model.CalendarConfig
}

func (f *fakeConfigWriter) Upsert(_ context.Context, cfg model.CalendarConfig) error {
	f.upserted = append(f.upserted, cfg)
	return nil
}

type fakeCredWriter struct {
	stored map[string]string
}

func (f *fakeCredWriter) Store(_ context.Context, spaID, name, value string) error {
	if f.stored == nil {
		f.stored = map[string]string{}
	}
	f.stored[spaID+"/"+name] = value
	return nil
}

func newSettingsHandler(cfgs *fakeConfigWriter, creds *fakeCredWriter) *SettingsHandler {
	return NewSettingsHandler(cfgs, creds, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetCalendarSettings_DefaultsWhenUnset(t *testing.T) {
	h := newSettingsHandler(&fakeConfigWriter{}, &fakeCredWriter{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings/calendar?spa_id=spa-1", nil)
	rec := httptest.NewRecorder()
	h.Calendar(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp calendarSettingsPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if resp.CalendarType != model.CalendarNone {
		t.Fatalf("calendar_type = %q, want none", resp.CalendarType)
	}
}

func TestPutCalendarSettings_StoresConfigAndCredentials(t *testing.T) {
	cfgs := &fakeConfigWriter{}
	creds := &fakeCredWriter{}
	h := newSettingsHandler(cfgs, creds)

	body := `{
		"spa_id": "spa-1",
		"calendar_type": "Acuity",
		"business_hours": {"weekday": {"open": "08:00", "close": "18:00"}, "weekend": {"open": "10:00", "close": "14:00"}},
		"credentials": {"ACUITY_API_KEY": "key-1", "": "ignored", "EMPTY": ""}
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings/calendar", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Calendar(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(cfgs.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(cfgs.upserted))
	}
	saved := cfgs.upserted[0]
	if saved.CalendarType != model.CalendarAcuity {
		t.Fatalf("calendar_type = %q, want normalized acuity", saved.CalendarType)
	}
	if saved.Hours == nil || saved.Hours.Weekday.Open != "08:00" {
		t.Fatalf("hours not saved: %+v", saved.Hours)
	}
	if creds.stored["spa-1/ACUITY_API_KEY"] != "key-1" {
		t.Fatalf("credential not stored: %v", creds.stored)
	}
	if len(creds.stored) != 1 {
		t.Fatalf("blank credentials must be skipped: %v", creds.stored)
	}
}

func TestPutCalendarSettings_MissingSpaID(t *testing.T) {
	h := newSettingsHandler(&fakeConfigWriter{}, &fakeCredWriter{})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings/calendar", strings.NewReader(`{"calendar_type":"acuity"}`))
	rec := httptest.NewRecorder()
	h.Calendar(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCalendarSettings_MethodNotAllowed(t *testing.T) {
	h := newSettingsHandler(&fakeConfigWriter{}, &fakeCredWriter{})
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/settings/calendar?spa_id=spa-1", nil)
	rec := httptest.NewRecorder()
	h.Calendar(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
