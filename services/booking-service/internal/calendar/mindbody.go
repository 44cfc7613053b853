package calendar

import (
	"context"
	"log/slog"
	"time"

	"github.com/velora-app/velora/services/booking-service/internal/model"
)

// mindbodyProvider is a placeholder until the MINDBODY integration lands.
// Both operations warn and return the no-result value so tenants who select
// it see "no availability" instead of errors.
type mindbodyProvider struct {
	logger *slog.Logger
}

func (p *mindbodyProvider) Name() string { return "mindbody" }

func (p *mindbodyProvider) GetSlots(_ context.Context, _ time.Time) ([]model.TimeSlot, error) {
	p.logger.Warn("mindbody integration not implemented yet")
	return nil, nil
}

func (p *mindbodyProvider) Book(_ context.Context, _ BookingRequest) (bool, error) {
	p.logger.Warn("mindbody integration not implemented yet")
	return false, nil
}
