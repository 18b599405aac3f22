package address

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/cepfinder/internal/cep"
	"github.com/dukerupert/cepfinder/internal/domain"
)

// Service implements the three backend operations behind the finder:
// local search, forced sync against the external API, and the API status check.
type Service struct {
	store   Store
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates an address service over a local store and an external fetcher.
func NewService(store Store, fetcher Fetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// SearchAddressByCep looks the CEP up in the local store.
// A missing record is an empty result (nil, nil), not an error.
func (s *Service) SearchAddressByCep(ctx context.Context, code string) (*Address, error) {
	const op = "address.search"

	if !cep.IsComplete(code) {
		return nil, domain.Invalid(op, "CEP must have 8 digits")
	}

	addr, err := s.store.FindByCEP(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read local address")
	}
	return addr, nil
}

// SyncAddressFromAPI fetches the CEP from the external API and overwrites the
// local record with it. Returns (nil, nil) when the API does not know the code.
func (s *Service) SyncAddressFromAPI(ctx context.Context, code string) (*Address, error) {
	const op = "address.sync"

	if !cep.IsComplete(code) {
		return nil, domain.Invalid(op, "CEP must have 8 digits")
	}

	fetched, err := s.fetcher.Fetch(ctx, code)
	if err != nil {
		return nil, err
	}
	if fetched == nil {
		return nil, nil
	}

	addr := *fetched
	addr.CEP = code
	addr.Source = SourceViaCEP
	addr.UpdatedAt = s.now().UTC()

	if err := Validate(addr); err != nil {
		s.logger.Warn("synced address rejected",
			"cep", code,
			"fields", domain.GetValidationFields(err),
		)
		return nil, err
	}

	stored, err := s.store.Upsert(ctx, addr)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to store synced address")
	}

	s.logger.Debug("address synced", "cep", code, "city", stored.City, "state", stored.State)
	return stored, nil
}

// CheckExternalServiceStatus reports whether the external API is answering.
func (s *Service) CheckExternalServiceStatus(ctx context.Context) (bool, error) {
	return s.fetcher.Ping(ctx)
}
