package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/velora-app/velora/libs/db"
	"github.com/velora-app/velora/services/booking-service/internal/model"
)

// CalendarConfigRepository stores per-spa calendar integration settings.
// Hours and custom settings live in JSONB columns so new adapter knobs don't
// need schema changes.
type CalendarConfigRepository struct {
	pool *db.Pool
}

func NewCalendarConfigRepository(pool *db.Pool) *CalendarConfigRepository {
	return &CalendarConfigRepository{pool: pool}
}

func (r *CalendarConfigRepository) CalendarConfig(ctx context.Context, spaID string) (model.CalendarConfig, bool, error) {
	var (
		cfg        model.CalendarConfig
		hoursJSON  []byte
		customJSON []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT spa_id::text, calendar_type, business_hours, custom_settings, updated_at
		FROM spa_calendar_configs
		WHERE spa_id = $1
	`, spaID).Scan(&cfg.SpaID, &cfg.CalendarType, &hoursJSON, &customJSON, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CalendarConfig{}, false, nil
	}
	if err != nil {
		return model.CalendarConfig{}, false, err
	}

	if len(hoursJSON) > 0 {
		var hours model.BusinessHours
		if err := json.Unmarshal(hoursJSON, &hours); err != nil {
			return model.CalendarConfig{}, false, err
		}
		cfg.Hours = &hours
	}
	if len(customJSON) > 0 {
		if err := json.Unmarshal(customJSON, &cfg.Custom); err != nil {
			return model.CalendarConfig{}, false, err
		}
	}
	return cfg, true, nil
}

func (r *CalendarConfigRepository) Upsert(ctx context.Context, cfg model.CalendarConfig) error {
	var hoursJSON any
	if cfg.Hours != nil {
		b, err := json.Marshal(cfg.Hours)
		if err != nil {
			return err
		}
		hoursJSON = b
	}
	customJSON, err := json.Marshal(cfg.Custom)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO spa_calendar_configs (spa_id, calendar_type, business_hours, custom_settings)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (spa_id) DO UPDATE
		SET calendar_type = EXCLUDED.calendar_type,
			business_hours = EXCLUDED.business_hours,
			custom_settings = EXCLUDED.custom_settings,
			updated_at = now()
	`, cfg.SpaID, cfg.CalendarType, hoursJSON, customJSON)
	return err
}
