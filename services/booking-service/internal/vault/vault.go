// Package vault resolves named secrets for a tenant: a process environment
// variable overrides everything, then the spa's encrypted credential store.
package vault

import (
	"context"
	"log/slog"
	"os"

	"github.com/velora-app/velora/libs/secretbox"
)

// Source tags which lookup path produced a credential so callers and tests
// can assert where a value came from.
type Source int

const (
	SourceNone Source = iota
	SourceEnvironment
	SourceTenantStore
	// SourceUnencrypted means the value came from the tenant store while no
	// cipher key is configured; it was used as-is.
	SourceUnencrypted
)

func (s Source) String() string {
	switch s {
	case SourceEnvironment:
		return "environment"
	case SourceTenantStore:
		return "tenant_store"
	case SourceUnencrypted:
		return "unencrypted"
	default:
		return "none"
	}
}

// Store is tenant-scoped credential persistence.
type Store interface {
	Credential(ctx context.Context, spaID, name string) (string, bool, error)
	SetCredential(ctx context.Context, spaID, name, value string) error
}

type Vault struct {
	store  Store
	cipher secretbox.Cipher
	logger *slog.Logger
}

// New builds a Vault. cipher may be nil, in which case stored credentials
// are read and written as plaintext; that degraded mode is logged loudly
// here and again on every read so it cannot pass unnoticed.
func New(store Store, cipher secretbox.Cipher, logger *slog.Logger) *Vault {
	if cipher == nil {
		logger.Warn("credential encryption key not configured; tenant credentials stored and read as plaintext")
	}
	return &Vault{store: store, cipher: cipher, logger: logger}
}

// Resolve returns the named secret for a spa, or "" when it is configured
// nowhere. A corrupt stored ciphertext is returned raw rather than failing
// the flow; the downstream vendor call rejects it naturally.
func (v *Vault) Resolve(ctx context.Context, spaID, name string) (string, Source, error) {
	if value := os.Getenv(name); value != "" {
		return value, SourceEnvironment, nil
	}

	stored, found, err := v.store.Credential(ctx, spaID, name)
	if err != nil {
		return "", SourceNone, err
	}
	if !found || stored == "" {
		return "", SourceNone, nil
	}

	if v.cipher == nil {
		v.logger.Warn("no encryption key set; using stored credential as-is", "spa_id", spaID, "name", name)
		return stored, SourceUnencrypted, nil
	}

	plain, err := v.cipher.Decrypt(stored)
	if err != nil {
		v.logger.Error("credential decrypt failed; returning stored value unmodified",
			"spa_id", spaID, "name", name, "err", err)
		return stored, SourceTenantStore, nil
	}
	return plain, SourceTenantStore, nil
}

// Store encrypts and persists a tenant credential. Without a cipher the
// value is stored as plaintext, with a warning.
func (v *Vault) Store(ctx context.Context, spaID, name, value string) error {
	if v.cipher == nil {
		v.logger.Warn("no encryption key set; storing credential unencrypted", "spa_id", spaID, "name", name)
		return v.store.SetCredential(ctx, spaID, name, value)
	}
	sealed, err := v.cipher.Encrypt(value)
	if err != nil {
		return err
	}
	return v.store.SetCredential(ctx, spaID, name, sealed)
}
