package calendar

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/velora-app/velora/libs/config"
	"github.com/velora-app/velora/services/booking-service/internal/model"
	"github.com/velora-app/velora/services/booking-service/internal/vault"
)

// ConfigStore resolves a spa's calendar integration row.
type ConfigStore interface {
	CalendarConfig(ctx context.Context, spaID string) (model.CalendarConfig, bool, error)
}

// AppointmentStore is the slice of appointment persistence the internal
// adapter needs. Create must return model.ErrSlotConflict when the requested
// time overlaps an existing non-cancelled appointment.
type AppointmentStore interface {
	ListForDay(ctx context.Context, spaID, locationID string, day time.Time) ([]model.Appointment, error)
	Create(ctx context.Context, appt *model.Appointment) (string, error)
}

// Connector selects the Provider for a spa's configured calendar_type and
// forwards calls to it. Neither operation propagates adapter failures:
// callers get an empty slot list or a false booking result and treat both as
// "unavailable". The one exception is model.ErrSlotConflict from the
// internal adapter, which stays visible so double-booking is a caller-level
// outcome rather than a silent success.
type Connector struct {
	configs ConfigStore
	appts   AppointmentStore
	secrets *vault.Vault
	httpc   *http.Client
	logger  *slog.Logger
}

func NewConnector(configs ConfigStore, appts AppointmentStore, secrets *vault.Vault, logger *slog.Logger) *Connector {
	return &Connector{
		configs: configs,
		appts:   appts,
		secrets: secrets,
		httpc:   newVendorHTTPClient(),
		logger:  logger,
	}
}

func (c *Connector) GetAvailableSlots(ctx context.Context, spaID string, day time.Time) []model.TimeSlot {
	p, ok := c.providerFor(ctx, spaID, "get_slots")
	if !ok {
		return nil
	}
	slots, err := p.GetSlots(ctx, day)
	if err != nil {
		c.logVendorError(p.Name(), "get_slots", spaID, err)
		return nil
	}
	return slots
}

func (c *Connector) BookAppointment(ctx context.Context, spaID string, req BookingRequest) (bool, error) {
	p, ok := c.providerFor(ctx, spaID, "book")
	if !ok {
		return false, nil
	}
	booked, err := p.Book(ctx, req)
	if err != nil {
		if errors.Is(err, model.ErrSlotConflict) {
			return false, model.ErrSlotConflict
		}
		c.logVendorError(p.Name(), "book", spaID, err)
		return false, nil
	}
	return booked, nil
}

func (c *Connector) providerFor(ctx context.Context, spaID, op string) (Provider, bool) {
	cfg, found, err := c.configs.CalendarConfig(ctx, spaID)
	if err != nil {
		c.logger.Error("calendar config load failed", "spa_id", spaID, "op", op, "err", err)
		return nil, false
	}
	if !found {
		// Tenants that never touched calendar settings book on the internal
		// scheduler with default hours.
		cfg = model.CalendarConfig{SpaID: spaID, CalendarType: model.CalendarNone}
	}
	return c.adapterFor(ctx, cfg), true
}

func (c *Connector) adapterFor(ctx context.Context, cfg model.CalendarConfig) Provider {
	calType := strings.ToLower(strings.TrimSpace(cfg.CalendarType))
	switch calType {
	case "", model.CalendarNone, "internal":
		return newInternalProvider(c.appts, cfg)
	case model.CalendarAcuity:
		return &acuityProvider{
			apiKey:     c.resolveSecret(ctx, cfg.SpaID, "ACUITY_API_KEY"),
			baseURL:    config.String("ACUITY_API_URL", defaultAcuityBaseURL),
			calendarID: cfg.SpaID,
			httpc:      c.httpc,
		}
	case model.CalendarCalendly:
		return &calendlyProvider{
			apiKey:  c.resolveSecret(ctx, cfg.SpaID, "CALENDLY_API_KEY"),
			baseURL: config.String("CALENDLY_API_URL", defaultCalendlyBaseURL),
			httpc:   c.httpc,
		}
	case model.CalendarGoogle:
		return &googleProvider{
			creds: googleCredentials{
				AccessToken:  c.resolveSecret(ctx, cfg.SpaID, "GOOGLE_CALENDAR_TOKEN"),
				RefreshToken: c.resolveSecret(ctx, cfg.SpaID, "GOOGLE_CALENDAR_REFRESH_TOKEN"),
				ClientID:     c.resolveSecret(ctx, cfg.SpaID, "GOOGLE_CLIENT_ID"),
				ClientSecret: c.resolveSecret(ctx, cfg.SpaID, "GOOGLE_CLIENT_SECRET"),
			},
			apiBase:  config.String("GOOGLE_CALENDAR_API_URL", defaultGoogleAPIBase),
			tokenURL: config.String("GOOGLE_TOKEN_URL", defaultGoogleTokenURL),
			httpc:    c.httpc,
		}
	case model.CalendarSimply:
		return &simplybookProvider{
			companyLogin: c.resolveSecret(ctx, cfg.SpaID, "SIMPLYBOOK_COMPANY_LOGIN"),
			apiKey:       c.resolveSecret(ctx, cfg.SpaID, "SIMPLYBOOK_API_KEY"),
			baseURL:      config.String("SIMPLYBOOK_API_URL", defaultSimplybookBaseURL),
			httpc:        c.httpc,
		}
	case model.CalendarMindbody:
		return &mindbodyProvider{logger: c.logger}
	default:
		// Unknown vendors run through the config-driven custom adapter.
		return &customProvider{
			spaID:     cfg.SpaID,
			settings:  cfg.Custom,
			apiKey:    c.resolveSecret(ctx, cfg.SpaID, "CUSTOM_API_KEY_"+cfg.SpaID),
			basicPass: c.resolveSecret(ctx, cfg.SpaID, "CUSTOM_API_PASSWORD_"+cfg.SpaID),
			httpc:     c.httpc,
		}
	}
}

func (c *Connector) resolveSecret(ctx context.Context, spaID, name string) string {
	value, source, err := c.secrets.Resolve(ctx, spaID, name)
	if err != nil {
		c.logger.Error("credential lookup failed", "spa_id", spaID, "name", name, "err", err)
		return ""
	}
	if value != "" {
		c.logger.Debug("credential resolved", "spa_id", spaID, "name", name, "source", source.String())
	}
	return value
}

func (c *Connector) logVendorError(provider, op, spaID string, err error) {
	var ve *VendorError
	if errors.As(err, &ve) {
		c.logger.Error("calendar provider call failed",
			"provider", provider, "op", op, "spa_id", spaID,
			"kind", ve.Kind.String(), "err", err)
		return
	}
	c.logger.Error("calendar provider call failed", "provider", provider, "op", op, "spa_id", spaID, "err", err)
}
