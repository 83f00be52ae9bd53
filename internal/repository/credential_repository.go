package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dashboard-auth/internal/domain"
)

// ErrCredentialNotFound is returned when no credential exists for an identity.
var ErrCredentialNotFound = errors.New("credential not found")

// PasswordHasher turns a plaintext secret into a storable hash.
type PasswordHasher func(secret string) (string, error)

// CredentialRepository resolves login credentials by identity.
type CredentialRepository interface {
	Lookup(ctx context.Context, identity string) (*domain.Credential, error)
}

type staticCredentialRepository struct {
	records map[string]domain.Credential
}

// NewStaticCredentialRepository hashes the seed secrets once and serves them read-only.
func NewStaticCredentialRepository(seed []domain.DemoCredential, hash PasswordHasher) (CredentialRepository, error) {
	records := make(map[string]domain.Credential, len(seed))
	for _, s := range seed {
		hashed, err := hash(s.Secret)
		if err != nil {
			return nil, fmt.Errorf("hash secret for %q: %w", s.Identity, err)
		}
		records[s.Identity] = domain.Credential{Identity: s.Identity, SecretHash: hashed, Role: s.Role}
	}
	return &staticCredentialRepository{records: records}, nil
}

func (r *staticCredentialRepository) Lookup(_ context.Context, identity string) (*domain.Credential, error) {
	cred, ok := r.records[identity]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return &cred, nil
}

type postgresCredentialRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCredentialRepository returns a Postgres-backed implementation.
func NewPostgresCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &postgresCredentialRepository{pool: pool}
}

func (r *postgresCredentialRepository) Lookup(ctx context.Context, identity string) (*domain.Credential, error) {
	const query = `
        SELECT identity, secret_hash, role, created_at
        FROM credentials WHERE identity=$1`

	var cred domain.Credential
	if err := r.pool.QueryRow(ctx, query, identity).Scan(
		&cred.Identity,
		&cred.SecretHash,
		&cred.Role,
		&cred.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// SeedCredentials inserts seed accounts that do not exist yet and returns how many were added.
func SeedCredentials(ctx context.Context, pool *pgxpool.Pool, seed []domain.DemoCredential, hash PasswordHasher) (int, error) {
	const query = `
        INSERT INTO credentials (identity, secret_hash, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (identity) DO NOTHING`

	inserted := 0
	for _, s := range seed {
		hashed, err := hash(s.Secret)
		if err != nil {
			return inserted, fmt.Errorf("hash secret for %q: %w", s.Identity, err)
		}
		cmd, err := pool.Exec(ctx, query, s.Identity, hashed, s.Role)
		if err != nil {
			return inserted, fmt.Errorf("seed %q: %w", s.Identity, err)
		}
		inserted += int(cmd.RowsAffected())
	}
	return inserted, nil
}
