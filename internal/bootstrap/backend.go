// Package bootstrap assembles the address backend shared by the server and
// the CLI, and handles one-time initialization tasks such as migrations and
// seeding.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/cepfinder/internal"
	"github.com/dukerupert/cepfinder/internal/address"
	"github.com/dukerupert/cepfinder/internal/postgres"
	"github.com/dukerupert/cepfinder/internal/telemetry"
	"github.com/dukerupert/cepfinder/internal/viacep"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Backend is the address service with the store it runs over.
type Backend struct {
	Service *address.Service
	Store   address.Store
	Fetcher address.Fetcher

	closers []func()
}

// Close releases the database pool, if any.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Open builds the backend from cfg: PostgreSQL when DatabaseUrl is set
// (migrated on open), the in-memory store otherwise. The seed file, when
// configured, is applied with EnsureSeed.
func Open(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	var store address.Store
	if cfg.DatabaseUrl == "" {
		logger.Info("DATABASE_URL not set, using in-memory address store")
		store = address.NewMemoryStore()
	} else {
		if err := Migrate(cfg.DatabaseUrl, logger); err != nil {
			return nil, err
		}

		pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		b.closers = append(b.closers, pool.Close)

		if err := pool.Ping(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		logger.Info("Database connection established")

		store = postgres.NewAddressStore(pool)
	}

	if cfg.SeedFile != "" {
		addrs, err := address.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			b.Close()
			return nil, err
		}
		if _, err := EnsureSeed(ctx, store, addrs, logger); err != nil {
			b.Close()
			return nil, err
		}
	}

	cached := address.NewCachedStore(store, cfg.AddressCacheSize, cfg.AddressCacheTTL)

	fetcher := viacep.NewClient(viacep.Config{
		BaseURL:       cfg.ViaCEP.BaseURL,
		Timeout:       cfg.ViaCEP.Timeout,
		RatePerSecond: cfg.ViaCEP.RatePerSecond,
		Burst:         cfg.ViaCEP.Burst,
		ProbeCEP:      cfg.ViaCEP.ProbeCEP,
		Transport:     &telemetry.HTTPTransport{},
	})

	b.Store = cached
	b.Fetcher = fetcher
	b.Service = address.NewService(cached, fetcher, logger)
	return b, nil
}

// Migrate applies pending migrations to the database at url.
func Migrate(url string, logger *slog.Logger) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")
	return nil
}

// EnsureSeed writes the seed addresses the store does not have yet and
// returns how many it wrote. Records already present, including ones
// synced from the external API, are left alone, so it is safe to call on
// every startup.
func EnsureSeed(ctx context.Context, store address.Store, addrs []address.Address, logger *slog.Logger) (int, error) {
	var missing []address.Address
	for _, addr := range addrs {
		_, err := store.FindByCEP(ctx, addr.CEP)
		if err == nil {
			continue
		}
		if !errors.Is(err, address.ErrNotFound) {
			return 0, fmt.Errorf("failed to check seed address %s: %w", addr.CEP, err)
		}
		missing = append(missing, addr)
	}

	n, err := address.Seed(ctx, store, missing)
	if err != nil {
		return n, err
	}

	logger.Info("bootstrap: seed applied",
		"written", n,
		"skipped", len(addrs)-len(missing),
	)
	return n, nil
}

// MigrationStatus prints the applied state of every migration.
func MigrationStatus(url string) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	return internal.MigrationStatus(db)
}
