// Package postgres is the PostgreSQL-backed local data source for addresses.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/cepfinder/internal/address"
	"github.com/jackc/pgx/v5"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx the store uses.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AddressStore implements address.Store using PostgreSQL.
type AddressStore struct {
	db DBTX
}

// Compile-time check to ensure AddressStore implements address.Store.
var _ address.Store = (*AddressStore)(nil)

// NewAddressStore creates a new AddressStore over a pool or transaction.
func NewAddressStore(db DBTX) *AddressStore {
	return &AddressStore{db: db}
}

const addressColumns = `cep, street, complement, neighborhood, city, state, ibge, ddd, source, updated_at`

const findAddressByCEP = `
SELECT ` + addressColumns + `
FROM addresses
WHERE cep = $1`

const upsertAddress = `
INSERT INTO addresses (cep, street, complement, neighborhood, city, state, ibge, ddd, source, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()))
ON CONFLICT (cep) DO UPDATE SET
    street       = EXCLUDED.street,
    complement   = EXCLUDED.complement,
    neighborhood = EXCLUDED.neighborhood,
    city         = EXCLUDED.city,
    state        = EXCLUDED.state,
    ibge         = EXCLUDED.ibge,
    ddd          = EXCLUDED.ddd,
    source       = EXCLUDED.source,
    updated_at   = EXCLUDED.updated_at
RETURNING ` + addressColumns

// FindByCEP returns the stored address for cep, or address.ErrNotFound.
func (s *AddressStore) FindByCEP(ctx context.Context, cep string) (*address.Address, error) {
	addr, err := scanAddress(s.db.QueryRow(ctx, findAddressByCEP, cep))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query address %s: %w", cep, err)
	}
	return addr, nil
}

// Upsert inserts addr or replaces the existing row with the same CEP.
func (s *AddressStore) Upsert(ctx context.Context, addr address.Address) (*address.Address, error) {
	source := addr.Source
	if source == "" {
		source = address.SourceLocal
	}

	var updatedAt any
	if !addr.UpdatedAt.IsZero() {
		updatedAt = addr.UpdatedAt
	}

	row := s.db.QueryRow(ctx, upsertAddress,
		addr.CEP,
		addr.Street,
		addr.Complement,
		addr.Neighborhood,
		addr.City,
		addr.State,
		addr.IBGE,
		addr.DDD,
		source,
		updatedAt,
	)

	stored, err := scanAddress(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert address %s: %w", addr.CEP, err)
	}
	return stored, nil
}

func scanAddress(row pgx.Row) (*address.Address, error) {
	var a address.Address
	err := row.Scan(
		&a.CEP,
		&a.Street,
		&a.Complement,
		&a.Neighborhood,
		&a.City,
		&a.State,
		&a.IBGE,
		&a.DDD,
		&a.Source,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
