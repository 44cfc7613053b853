package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/velora-app/velora/libs/db"
)

// CredentialRepository is the tenant credential table behind the vault.
// Values arrive already encrypted (or, in degraded plaintext mode, as-is);
// this layer never inspects them.
type CredentialRepository struct {
	pool *db.Pool
}

func NewCredentialRepository(pool *db.Pool) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

func (r *CredentialRepository) Credential(ctx context.Context, spaID, name string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx, `
		SELECT value
		FROM spa_credentials
		WHERE spa_id = $1 AND name = $2
	`, spaID, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *CredentialRepository) SetCredential(ctx context.Context, spaID, name, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO spa_credentials (spa_id, name, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (spa_id, name) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = now()
	`, spaID, name, value)
	return err
}
