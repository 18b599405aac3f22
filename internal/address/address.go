package address

import (
	"context"
	"time"

	"github.com/dukerupert/cepfinder/internal/domain"
)

// Sources an address record can come from.
const (
	SourceLocal  = "local"
	SourceViaCEP = "viacep"
	SourceSeed   = "seed"
)

// ErrNotFound is returned by stores when no address is recorded for a CEP.
var ErrNotFound = &domain.Error{Code: domain.ENOTFOUND, Message: "address not found"}

// Address is a postal address resolved from a CEP.
// The lookup workflows pass it through untouched; only this package looks inside.
type Address struct {
	CEP          string    `json:"cep" yaml:"cep" validate:"required,len=8,numeric"`
	Street       string    `json:"street" yaml:"street"`
	Complement   string    `json:"complement,omitempty" yaml:"complement"`
	Neighborhood string    `json:"neighborhood" yaml:"neighborhood"`
	City         string    `json:"city" yaml:"city" validate:"required"`
	State        string    `json:"state" yaml:"state" validate:"required,len=2,alpha"`
	IBGE         string    `json:"ibge,omitempty" yaml:"ibge" validate:"omitempty,numeric"`
	DDD          string    `json:"ddd,omitempty" yaml:"ddd" validate:"omitempty,len=2,numeric"`
	Source       string    `json:"source,omitempty" yaml:"-"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"-"`
}

// Store is the local address data source.
type Store interface {
	// FindByCEP returns the address recorded for an 8-digit CEP,
	// or ErrNotFound when there is none.
	FindByCEP(ctx context.Context, cep string) (*Address, error)

	// Upsert records addr, replacing any previous record for the same CEP.
	Upsert(ctx context.Context, addr Address) (*Address, error)
}

// Fetcher resolves addresses against an external authoritative API.
type Fetcher interface {
	// Fetch returns the address for an 8-digit CEP, or nil when the API
	// reports the code does not exist.
	Fetch(ctx context.Context, cep string) (*Address, error)

	// Ping reports whether the API is currently answering lookups.
	Ping(ctx context.Context) (bool, error)
}
