package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/velora-app/velora/libs/db"
	"github.com/velora-app/velora/services/booking-service/internal/model"
	"github.com/velora-app/velora/services/booking-service/internal/outbox"
)

const apptColumns = `id::text, spa_id::text, service_id::text, COALESCE(location_id::text, ''),
	client_name, client_email, client_phone, start_time, duration_minutes, status,
	cancelled_at, COALESCE(cancellation_reason, ''), created_at`

// AppointmentRepository persists appointments and, in the same transaction,
// the outbox events announcing them. The appointments table carries an
// exclusion constraint on (spa_id, location_id, time range) for non-cancelled
// rows; its violation surfaces here as model.ErrSlotConflict.
type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.NewString()
	var locationID any
	if appt.LocationID != "" {
		locationID = appt.LocationID
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO appointments
			(id, spa_id, service_id, location_id, client_name, client_email, client_phone,
			 start_time, duration_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, appt.SpaID, appt.ServiceID, locationID, appt.ClientName, appt.ClientEmail, appt.ClientPhone,
		appt.StartTime, appt.DurationMinutes, appt.Status)
	if err != nil {
		if isSlotTaken(err) {
			return "", model.ErrSlotConflict
		}
		return "", err
	}

	evt, err := outbox.AppointmentBooked(id, appt)
	if err != nil {
		return "", err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		if isSlotTaken(err) {
			return "", model.ErrSlotConflict
		}
		return "", err
	}
	return id, nil
}

// ListForDay returns non-cancelled appointments for a spa on the given
// calendar day, optionally narrowed to one location.
func (r *AppointmentRepository) ListForDay(ctx context.Context, spaID, locationID string, day time.Time) ([]model.Appointment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE spa_id = $1
			AND status <> 'cancelled'
			AND start_time >= $2
			AND start_time < $3
			AND ($4 = '' OR location_id::text = $4)
		ORDER BY start_time ASC
	`, spaID, dayStart, dayEnd, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentRepository) ListBySpa(ctx context.Context, spaID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE spa_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, spaID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentRepository) Get(ctx context.Context, spaID, appointmentID string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE id = $1 AND spa_id = $2
	`, appointmentID, spaID)
	return scanAppointment(row)
}

// Cancel marks an appointment cancelled and queues the cancellation event.
// Returns pgx.ErrNoRows when the appointment does not belong to the spa.
func (r *AppointmentRepository) Cancel(ctx context.Context, spaID, appointmentID, reason string) (time.Time, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return time.Time{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx, `
		SELECT status FROM appointments
		WHERE id = $1 AND spa_id = $2
		FOR UPDATE
	`, appointmentID, spaID).Scan(&status)
	if err != nil {
		return time.Time{}, err
	}
	if status == model.StatusCancelled {
		var cancelledAt time.Time
		err = tx.QueryRow(ctx, `
			SELECT cancelled_at FROM appointments WHERE id = $1
		`, appointmentID).Scan(&cancelledAt)
		return cancelledAt, err
	}

	var cancelledAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $3
		WHERE id = $1 AND spa_id = $2
		RETURNING cancelled_at
	`, appointmentID, spaID, reason).Scan(&cancelledAt)
	if err != nil {
		return time.Time{}, err
	}

	evt, err := outbox.AppointmentCancelled(appointmentID, spaID, reason, cancelledAt)
	if err != nil {
		return time.Time{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return time.Time{}, err
	}
	return cancelledAt, tx.Commit(ctx)
}

func (r *AppointmentRepository) Complete(ctx context.Context, spaID, appointmentID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed'
		WHERE id = $1 AND spa_id = $2 AND status = 'confirmed'
	`, appointmentID, spaID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var cancelledAt *time.Time
	err := row.Scan(
		&appt.ID,
		&appt.SpaID,
		&appt.ServiceID,
		&appt.LocationID,
		&appt.ClientName,
		&appt.ClientEmail,
		&appt.ClientPhone,
		&appt.StartTime,
		&appt.DurationMinutes,
		&appt.Status,
		&cancelledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CancelledAt = cancelledAt
	return appt, nil
}

// 23P01 is exclusion_violation from the overlap constraint; 23505 covers the
// unique fallback index some deployments still run.
func isSlotTaken(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505")
}

func IsConflict(err error) bool {
	return errors.Is(err, model.ErrSlotConflict) || isSlotTaken(err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
