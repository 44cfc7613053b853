package outbox

import (
	"encoding/json"
	"time"

	"github.com/velora-app/velora/services/booking-service/internal/model"
)

const (
	EventAppointmentBooked    = "booking.appointment.booked.v1"
	EventAppointmentCancelled = "booking.appointment.cancelled.v1"
)

// Event is the envelope written to the outbox table inside the same
// transaction as the state change it announces. The Kafka topic name
// equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type appointmentBookedPayload struct {
	AppointmentID   string    `json:"appointment_id"`
	SpaID           string    `json:"spa_id"`
	ServiceID       string    `json:"service_id"`
	LocationID      string    `json:"location_id,omitempty"`
	ClientName      string    `json:"client_name"`
	ClientEmail     string    `json:"client_email"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

type appointmentCancelledPayload struct {
	AppointmentID string    `json:"appointment_id"`
	SpaID         string    `json:"spa_id"`
	CancelledAt   time.Time `json:"cancelled_at"`
	Reason        string    `json:"reason,omitempty"`
}

func AppointmentBooked(id string, appt *model.Appointment) (Event, error) {
	payload, err := json.Marshal(appointmentBookedPayload{
		AppointmentID:   id,
		SpaID:           appt.SpaID,
		ServiceID:       appt.ServiceID,
		LocationID:      appt.LocationID,
		ClientName:      appt.ClientName,
		ClientEmail:     appt.ClientEmail,
		StartTime:       appt.StartTime,
		DurationMinutes: appt.DurationMinutes,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     EventAppointmentBooked,
		Payload:       payload,
	}, nil
}

func AppointmentCancelled(id, spaID, reason string, cancelledAt time.Time) (Event, error) {
	payload, err := json.Marshal(appointmentCancelledPayload{
		AppointmentID: id,
		SpaID:         spaID,
		CancelledAt:   cancelledAt,
		Reason:        reason,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     EventAppointmentCancelled,
		Payload:       payload,
	}, nil
}
