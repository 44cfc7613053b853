// Package calendar dispatches availability and booking calls to the
// calendar system a spa has connected: the internal scheduler or one of
// several third-party vendors behind a uniform Provider contract.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/velora-app/velora/services/booking-service/internal/model"
)

// Provider is the uniform contract every vendor adapter implements.
// Adapters report failures as *VendorError; the Connector decides what the
// caller sees.
type Provider interface {
	Name() string
	GetSlots(ctx context.Context, day time.Time) ([]model.TimeSlot, error)
	Book(ctx context.Context, req BookingRequest) (bool, error)
}

// BookingRequest carries everything an adapter needs to place a booking.
// ProviderID is the vendor-side staff/unit reference where one exists.
type BookingRequest struct {
	ServiceID       string
	LocationID      string
	ProviderID      string
	ClientName      string
	ClientEmail     string
	ClientPhone     string
	Start           time.Time
	DurationMinutes int
}

func (r BookingRequest) duration() int {
	if r.DurationMinutes > 0 {
		return r.DurationMinutes
	}
	return defaultSlotMinutes
}

// defaultSlotMinutes is the slot length used wherever a vendor or tenant
// does not supply one.
const defaultSlotMinutes = 60

type ErrorKind int

const (
	// KindVendorUnavailable covers network failures, non-2xx statuses, and
	// malformed vendor payloads.
	KindVendorUnavailable ErrorKind = iota
	// KindMisconfigured covers missing API keys, URLs, or mapping fields for
	// the tenant's selected provider.
	KindMisconfigured
)

func (k ErrorKind) String() string {
	if k == KindMisconfigured {
		return "misconfigured"
	}
	return "vendor_unavailable"
}

// VendorError distinguishes "the vendor call failed" from "legitimately zero
// slots" for logging. Both collapse to the same empty/false result at the
// Connector boundary.
type VendorError struct {
	Provider string
	Op       string
	Kind     ErrorKind
	Reason   string
	Err      error
}

func (e *VendorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Provider, e.Op, e.Kind, e.Reason)
}

func (e *VendorError) Unwrap() error { return e.Err }

func misconfigured(provider, op, reason string) *VendorError {
	return &VendorError{Provider: provider, Op: op, Kind: KindMisconfigured, Reason: reason}
}

func unavailable(provider, op string, err error) *VendorError {
	return &VendorError{Provider: provider, Op: op, Kind: KindVendorUnavailable, Err: err}
}

func vendorStatus(provider, op string, status int) *VendorError {
	return &VendorError{
		Provider: provider,
		Op:       op,
		Kind:     KindVendorUnavailable,
		Reason:   fmt.Sprintf("vendor returned status %d", status),
	}
}
