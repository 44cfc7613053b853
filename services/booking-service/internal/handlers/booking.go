package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/velora-app/velora/services/booking-service/internal/availability"
	"github.com/velora-app/velora/services/booking-service/internal/calendar"
	"github.com/velora-app/velora/services/booking-service/internal/model"
	"github.com/velora-app/velora/services/booking-service/internal/storage"
)

// SlotConnector is the calendar dispatch surface the booking endpoints use.
// Implemented by *calendar.Connector.
type SlotConnector interface {
	GetAvailableSlots(ctx context.Context, spaID string, day time.Time) []model.TimeSlot
	BookAppointment(ctx context.Context, spaID string, req calendar.BookingRequest) (bool, error)
}

type AppointmentStore interface {
	ListForDay(ctx context.Context, spaID, locationID string, day time.Time) ([]model.Appointment, error)
	ListBySpa(ctx context.Context, spaID string, limit int) ([]model.Appointment, error)
	Cancel(ctx context.Context, spaID, appointmentID, reason string) (time.Time, error)
	Complete(ctx context.Context, spaID, appointmentID string) error
}

type CatalogStore interface {
	GetService(ctx context.Context, spaID, serviceID string) (model.Service, error)
	GetLocation(ctx context.Context, spaID, locationID string) (model.Location, error)
}

type ConfigStore interface {
	CalendarConfig(ctx context.Context, spaID string) (model.CalendarConfig, bool, error)
}

type BookingHandler struct {
	connector SlotConnector
	appts     AppointmentStore
	catalog   CatalogStore
	configs   ConfigStore
	logger    *slog.Logger
}

func NewBookingHandler(connector SlotConnector, appts AppointmentStore, catalog CatalogStore, configs ConfigStore, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		connector: connector,
		appts:     appts,
		catalog:   catalog,
		configs:   configs,
		logger:    logger,
	}
}

type slotItem struct {
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	ServiceID       string `json:"service_id,omitempty"`
	ProviderID      string `json:"provider_id,omitempty"`
}

type bookRequest struct {
	SpaID           string `json:"spa_id"`
	ServiceID       string `json:"service_id"`
	LocationID      string `json:"location_id"`
	ProviderID      string `json:"provider_id"`
	ClientName      string `json:"client_name"`
	ClientEmail     string `json:"client_email"`
	ClientPhone     string `json:"client_phone"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type bookResponse struct {
	Booked bool `json:"booked"`
}

type cancelRequest struct {
	SpaID         string `json:"spa_id"`
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type cancelResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at"`
}

type listAppointmentItem struct {
	AppointmentID   string `json:"appointment_id"`
	ServiceID       string `json:"service_id"`
	LocationID      string `json:"location_id,omitempty"`
	ClientName      string `json:"client_name"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// Slots serves the public widget: whatever calendar the spa connected, the
// response shape is the same, and a failing vendor shows as an empty list.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	spaID := strings.TrimSpace(r.URL.Query().Get("spa_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if spaID == "" || dateStr == "" {
		http.Error(w, "spa_id and date are required", http.StatusBadRequest)
		return
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	slots := h.connector.GetAvailableSlots(r.Context(), spaID, day)
	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItemFrom(s))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SpaID = strings.TrimSpace(req.SpaID)
	req.ClientName = strings.TrimSpace(req.ClientName)
	if req.SpaID == "" || req.ClientName == "" || req.StartTime == "" {
		http.Error(w, "spa_id, client_name, and start_time are required", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	duration := req.DurationMinutes
	if duration <= 0 && req.ServiceID != "" {
		if svc, err := h.catalog.GetService(r.Context(), req.SpaID, req.ServiceID); err == nil {
			duration = svc.DurationMinutes
		}
	}

	booked, err := h.connector.BookAppointment(r.Context(), req.SpaID, calendar.BookingRequest{
		ServiceID:       strings.TrimSpace(req.ServiceID),
		LocationID:      strings.TrimSpace(req.LocationID),
		ProviderID:      strings.TrimSpace(req.ProviderID),
		ClientName:      req.ClientName,
		ClientEmail:     strings.TrimSpace(req.ClientEmail),
		ClientPhone:     strings.TrimSpace(req.ClientPhone),
		Start:           start,
		DurationMinutes: duration,
	})
	if err != nil {
		if errors.Is(err, model.ErrSlotConflict) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to book appointment", http.StatusInternalServerError)
		return
	}
	if !booked {
		writeJSON(w, http.StatusOK, bookResponse{Booked: false})
		return
	}
	writeJSON(w, http.StatusCreated, bookResponse{Booked: true})
}

// Available computes service-sized slots from our own records: business hours
// (location hours when set, else the spa's calendar hours, else defaults)
// minus existing appointments, on a 30-minute grid.
func (h *BookingHandler) Available(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	spaID := strings.TrimSpace(q.Get("spa_id"))
	serviceID := strings.TrimSpace(q.Get("service_id"))
	locationID := strings.TrimSpace(q.Get("location_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	if spaID == "" || serviceID == "" || dateStr == "" {
		http.Error(w, "spa_id, service_id, and date are required", http.StatusBadRequest)
		return
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	svc, err := h.catalog.GetService(r.Context(), spaID, serviceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}
	duration := svc.DurationMinutes
	if duration <= 0 {
		duration = 30
	}

	hours, err := h.resolveHours(r.Context(), spaID, locationID)
	if err != nil {
		http.Error(w, "failed to load business hours", http.StatusInternalServerError)
		return
	}
	dh := hours.For(day)
	window, ok := availability.DayWindow(day, dh.Open, dh.Close)
	if !ok {
		h.logger.Warn("bad business hours; no availability", "spa_id", spaID, "open", dh.Open, "close", dh.Close)
		writeJSON(w, http.StatusOK, []slotItem{})
		return
	}

	existing, err := h.appts.ListForDay(r.Context(), spaID, locationID, day)
	if err != nil {
		http.Error(w, "failed to load appointments", http.StatusInternalServerError)
		return
	}
	busy := make([]availability.Interval, 0, len(existing))
	for _, a := range existing {
		busy = append(busy, availability.Interval{Start: a.StartTime, End: a.EndTime()})
	}

	starts := availability.SlotStarts(window, time.Duration(duration)*time.Minute, 30*time.Minute, busy)
	items := make([]slotItem, 0, len(starts))
	for _, s := range starts {
		items = append(items, slotItem{
			StartTime:       s.UTC().Format(time.RFC3339),
			EndTime:         s.Add(time.Duration(duration) * time.Minute).UTC().Format(time.RFC3339),
			DurationMinutes: duration,
			ServiceID:       serviceID,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	spaID := strings.TrimSpace(r.Header.Get("X-Spa-Id"))
	if spaID == "" {
		spaID = strings.TrimSpace(r.URL.Query().Get("spa_id"))
	}
	if spaID == "" {
		http.Error(w, "spa_id required", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	appts, err := h.appts.ListBySpa(r.Context(), spaID, limit)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]listAppointmentItem, 0, len(appts))
	for _, appt := range appts {
		item := listAppointmentItem{
			AppointmentID:   appt.ID,
			ServiceID:       appt.ServiceID,
			LocationID:      appt.LocationID,
			ClientName:      appt.ClientName,
			StartTime:       appt.StartTime.UTC().Format(time.RFC3339),
			EndTime:         appt.EndTime().UTC().Format(time.RFC3339),
			DurationMinutes: appt.DurationMinutes,
			Status:          appt.Status,
			CreatedAt:       appt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if appt.CancelledAt != nil {
			item.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SpaID = strings.TrimSpace(req.SpaID)
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.SpaID == "" || req.AppointmentID == "" {
		http.Error(w, "spa_id and appointment_id required", http.StatusBadRequest)
		return
	}

	cancelledAt, err := h.appts.Cancel(r.Context(), req.SpaID, req.AppointmentID, strings.TrimSpace(req.Reason))
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{
		AppointmentID: req.AppointmentID,
		Status:        model.StatusCancelled,
		CancelledAt:   cancelledAt.UTC().Format(time.RFC3339),
	})
}

// Complete marks a confirmed appointment as done. Only confirmed rows
// transition; anything else reads as not found.
func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SpaID         string `json:"spa_id"`
		AppointmentID string `json:"appointment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SpaID = strings.TrimSpace(req.SpaID)
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.SpaID == "" || req.AppointmentID == "" {
		http.Error(w, "spa_id and appointment_id required", http.StatusBadRequest)
		return
	}

	if err := h.appts.Complete(r.Context(), req.SpaID, req.AppointmentID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to complete appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"appointment_id": req.AppointmentID,
		"status":         model.StatusCompleted,
	})
}

func (h *BookingHandler) resolveHours(ctx context.Context, spaID, locationID string) (model.BusinessHours, error) {
	if locationID != "" {
		loc, err := h.catalog.GetLocation(ctx, spaID, locationID)
		if err == nil && loc.Hours != nil {
			return *loc.Hours, nil
		}
		if err != nil && !storage.IsNotFound(err) {
			return model.BusinessHours{}, err
		}
	}
	cfg, found, err := h.configs.CalendarConfig(ctx, spaID)
	if err != nil {
		return model.BusinessHours{}, err
	}
	if found && cfg.Hours != nil {
		return *cfg.Hours, nil
	}
	return model.DefaultBusinessHours(), nil
}

func slotItemFrom(s model.TimeSlot) slotItem {
	mins := s.DurationMinutes
	if mins <= 0 {
		mins = 60
	}
	return slotItem{
		StartTime:       s.Start.UTC().Format(time.RFC3339),
		EndTime:         s.Start.Add(time.Duration(mins) * time.Minute).UTC().Format(time.RFC3339),
		DurationMinutes: mins,
		ServiceID:       s.ServiceID,
		ProviderID:      s.ProviderID,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
