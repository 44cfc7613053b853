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

type fakeCatalogWriter struct {
	services  []model.Service
	locations []model.Location
}

func (f *fakeCatalogWriter) CreateService(_ context.Context, svc model.Service) (string, error) {
	svc.ID = "svc-new"
	f.services = append(f.services, svc)
	return svc.ID, nil
}

func (f *fakeCatalogWriter) ListServices(_ context.Context, _ string, _ int) ([]model.Service, error) {
	return f.services, nil
}

func (f *fakeCatalogWriter) CreateLocation(_ context.Context, loc model.Location) (string, error) {
	loc.ID = "loc-new"
	f.locations = append(f.locations, loc)
	return loc.ID, nil
}

func (f *fakeCatalogWriter) ListLocations(_ context.Context, _ string, _ int) ([]model.Location, error) {
	return f.locations, nil
}

func TestCreateService(t *testing.T) {
	cat := &fakeCatalogWriter{}
	h := NewCatalogHandler(cat, slog.New(slog.NewTextHandler(io.Discard, nil)))

	body := `{"spa_id":"spa-1","name":"Deep Tissue Massage","duration_minutes":60,"price_cents":9500}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/services", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Services(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp createdResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.ID == "" {
		t.Fatal("missing id in response")
	}
	if len(cat.services) != 1 || cat.services[0].DurationMinutes != 60 {
		t.Fatalf("service not persisted: %+v", cat.services)
	}
}

func TestCreateService_RequiresDuration(t *testing.T) {
	h := NewCatalogHandler(&fakeCatalogWriter{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	body := `{"spa_id":"spa-1","name":"Massage"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/services", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Services(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListLocations(t *testing.T) {
	cat := &fakeCatalogWriter{locations: []model.Location{{ID: "loc-1", SpaID: "spa-1", Name: "Downtown"}}}
	h := NewCatalogHandler(cat, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations?spa_id=spa-1", nil)
	rec := httptest.NewRecorder()
	h.Locations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []locationItem
	_ = json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 1 || items[0].Name != "Downtown" {
		t.Fatalf("unexpected items: %+v", items)
	}
}
