package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/velora-app/velora/services/booking-service/internal/model"
)

// ConfigWriter extends ConfigStore with persistence. Implemented by
// *storage.CalendarConfigRepository.
type ConfigWriter interface {
	ConfigStore
	Upsert(ctx context.Context, cfg model.CalendarConfig) error
}

// CredentialWriter stores tenant vendor credentials. Implemented by
// *vault.Vault, which encrypts before persisting.
type CredentialWriter interface {
	Store(ctx context.Context, spaID, name, value string) error
}

type SettingsHandler struct {
	configs ConfigWriter
	secrets CredentialWriter
	logger  *slog.Logger
}

func NewSettingsHandler(configs ConfigWriter, secrets CredentialWriter, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{configs: configs, secrets: secrets, logger: logger}
}

type calendarSettingsPayload struct {
	SpaID        string                        `json:"spa_id"`
	CalendarType string                        `json:"calendar_type"`
	Hours        *model.BusinessHours          `json:"business_hours,omitempty"`
	Custom       *model.CustomCalendarSettings `json:"custom_settings,omitempty"`
	// Credentials are write-only: accepted on PUT, never echoed on GET.
	Credentials map[string]string `json:"credentials,omitempty"`
}

// Calendar serves the tenant's calendar integration settings. GET returns the
// stored config (defaults when none exists); PUT replaces it and stores any
// supplied credentials through the vault.
func (h *SettingsHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getCalendar(w, r)
	case http.MethodPut, http.MethodPost:
		h.putCalendar(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) getCalendar(w http.ResponseWriter, r *http.Request) {
	spaID := spaIDFrom(r)
	if spaID == "" {
		http.Error(w, "spa_id required", http.StatusBadRequest)
		return
	}

	cfg, found, err := h.configs.CalendarConfig(r.Context(), spaID)
	if err != nil {
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	if !found {
		cfg = model.CalendarConfig{SpaID: spaID, CalendarType: model.CalendarNone}
	}

	resp := calendarSettingsPayload{
		SpaID:        cfg.SpaID,
		CalendarType: cfg.CalendarType,
		Hours:        cfg.Hours,
	}
	if cfg.Custom != (model.CustomCalendarSettings{}) {
		custom := cfg.Custom
		resp.Custom = &custom
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SettingsHandler) putCalendar(w http.ResponseWriter, r *http.Request) {
	var req calendarSettingsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	spaID := strings.TrimSpace(req.SpaID)
	if spaID == "" {
		spaID = spaIDFrom(r)
	}
	if spaID == "" {
		http.Error(w, "spa_id required", http.StatusBadRequest)
		return
	}

	calType := strings.ToLower(strings.TrimSpace(req.CalendarType))
	if calType == "" {
		calType = model.CalendarNone
	}

	cfg := model.CalendarConfig{
		SpaID:        spaID,
		CalendarType: calType,
		Hours:        req.Hours,
	}
	if req.Custom != nil {
		cfg.Custom = *req.Custom
	}
	if err := h.configs.Upsert(r.Context(), cfg); err != nil {
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}

	for name, value := range req.Credentials {
		name = strings.TrimSpace(name)
		if name == "" || value == "" {
			continue
		}
		if err := h.secrets.Store(r.Context(), spaID, name, value); err != nil {
			h.logger.Error("credential store failed", "spa_id", spaID, "name", name, "err", err)
			http.Error(w, "failed to store credentials", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, calendarSettingsPayload{
		SpaID:        spaID,
		CalendarType: calType,
		Hours:        req.Hours,
		Custom:       req.Custom,
	})
}

func spaIDFrom(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Spa-Id")); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get("spa_id"))
}
