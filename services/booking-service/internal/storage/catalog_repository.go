package storage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/velora-app/velora/libs/db"
	"github.com/velora-app/velora/services/booking-service/internal/model"
)

// CatalogRepository covers the spa's bookable inventory: services and
// locations. Location hours are JSONB like the calendar config hours.
type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) CreateService(ctx context.Context, svc model.Service) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO spa_services (id, spa_id, name, duration_minutes, price_cents)
		VALUES ($1, $2, $3, $4, $5)
	`, id, svc.SpaID, svc.Name, svc.DurationMinutes, svc.PriceCents)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *CatalogRepository) ListServices(ctx context.Context, spaID string, limit int) ([]model.Service, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, spa_id::text, name, duration_minutes, price_cents
		FROM spa_services
		WHERE spa_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, spaID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.SpaID, &s.Name, &s.DurationMinutes, &s.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *CatalogRepository) GetService(ctx context.Context, spaID, serviceID string) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, spa_id::text, name, duration_minutes, price_cents
		FROM spa_services
		WHERE spa_id = $1 AND id = $2
	`, spaID, serviceID).Scan(&s.ID, &s.SpaID, &s.Name, &s.DurationMinutes, &s.PriceCents)
	return s, err
}

func (r *CatalogRepository) CreateLocation(ctx context.Context, loc model.Location) (string, error) {
	var hoursJSON any
	if loc.Hours != nil {
		b, err := json.Marshal(loc.Hours)
		if err != nil {
			return "", err
		}
		hoursJSON = b
	}
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO spa_locations (id, spa_id, name, business_hours)
		VALUES ($1, $2, $3, $4)
	`, id, loc.SpaID, loc.Name, hoursJSON)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *CatalogRepository) ListLocations(ctx context.Context, spaID string, limit int) ([]model.Location, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, spa_id::text, name, business_hours
		FROM spa_locations
		WHERE spa_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, spaID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Location
	for rows.Next() {
		loc, err := scanLocation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *CatalogRepository) GetLocation(ctx context.Context, spaID, locationID string) (model.Location, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, spa_id::text, name, business_hours
		FROM spa_locations
		WHERE spa_id = $1 AND id = $2
	`, spaID, locationID)
	return scanLocation(row.Scan)
}

func scanLocation(scan func(...any) error) (model.Location, error) {
	var loc model.Location
	var hoursJSON []byte
	if err := scan(&loc.ID, &loc.SpaID, &loc.Name, &hoursJSON); err != nil {
		return model.Location{}, err
	}
	if len(hoursJSON) > 0 {
		var hours model.BusinessHours
		if err := json.Unmarshal(hoursJSON, &hours); err != nil {
			return model.Location{}, err
		}
		loc.Hours = &hours
	}
	return loc, nil
}
