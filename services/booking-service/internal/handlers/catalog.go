package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/velora-app/velora/services/booking-service/internal/model"
)

// CatalogWriter is the inventory surface behind the services/locations
// endpoints. Implemented by *storage.CatalogRepository.
type CatalogWriter interface {
	CreateService(ctx context.Context, svc model.Service) (string, error)
	ListServices(ctx context.Context, spaID string, limit int) ([]model.Service, error)
	CreateLocation(ctx context.Context, loc model.Location) (string, error)
	ListLocations(ctx context.Context, spaID string, limit int) ([]model.Location, error)
}

type CatalogHandler struct {
	catalog CatalogWriter
	logger  *slog.Logger
}

func NewCatalogHandler(catalog CatalogWriter, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

type serviceItem struct {
	ID              string `json:"id,omitempty"`
	SpaID           string `json:"spa_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int    `json:"price_cents"`
}

type locationItem struct {
	ID    string               `json:"id,omitempty"`
	SpaID string               `json:"spa_id"`
	Name  string               `json:"name"`
	Hours *model.BusinessHours `json:"business_hours,omitempty"`
}

type createdResponse struct {
	ID string `json:"id"`
}

func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listServices(w, r)
	case http.MethodPost:
		h.createService(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) listServices(w http.ResponseWriter, r *http.Request) {
	spaID := spaIDFrom(r)
	if spaID == "" {
		http.Error(w, "spa_id required", http.StatusBadRequest)
		return
	}
	services, err := h.catalog.ListServices(r.Context(), spaID, limitFrom(r))
	if err != nil {
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	items := make([]serviceItem, 0, len(services))
	for _, s := range services {
		items = append(items, serviceItem{
			ID:              s.ID,
			SpaID:           s.SpaID,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			PriceCents:      s.PriceCents,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) createService(w http.ResponseWriter, r *http.Request) {
	var req serviceItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SpaID = strings.TrimSpace(req.SpaID)
	req.Name = strings.TrimSpace(req.Name)
	if req.SpaID == "" || req.Name == "" || req.DurationMinutes <= 0 {
		http.Error(w, "spa_id, name, and positive duration_minutes required", http.StatusBadRequest)
		return
	}

	id, err := h.catalog.CreateService(r.Context(), model.Service{
		SpaID:           req.SpaID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
	})
	if err != nil {
		http.Error(w, "failed to create service", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (h *CatalogHandler) Locations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listLocations(w, r)
	case http.MethodPost:
		h.createLocation(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) listLocations(w http.ResponseWriter, r *http.Request) {
	spaID := spaIDFrom(r)
	if spaID == "" {
		http.Error(w, "spa_id required", http.StatusBadRequest)
		return
	}
	locations, err := h.catalog.ListLocations(r.Context(), spaID, limitFrom(r))
	if err != nil {
		http.Error(w, "failed to list locations", http.StatusInternalServerError)
		return
	}
	items := make([]locationItem, 0, len(locations))
	for _, l := range locations {
		items = append(items, locationItem{ID: l.ID, SpaID: l.SpaID, Name: l.Name, Hours: l.Hours})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) createLocation(w http.ResponseWriter, r *http.Request) {
	var req locationItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SpaID = strings.TrimSpace(req.SpaID)
	req.Name = strings.TrimSpace(req.Name)
	if req.SpaID == "" || req.Name == "" {
		http.Error(w, "spa_id and name required", http.StatusBadRequest)
		return
	}

	id, err := h.catalog.CreateLocation(r.Context(), model.Location{
		SpaID: req.SpaID,
		Name:  req.Name,
		Hours: req.Hours,
	})
	if err != nil {
		http.Error(w, "failed to create location", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func limitFrom(r *http.Request) int {
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			return n
		}
	}
	return 100
}
