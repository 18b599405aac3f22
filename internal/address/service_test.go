package address_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukerupert/cepfinder/internal/address"
	"github.com/dukerupert/cepfinder/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAddress() address.Address {
	return address.Address{
		CEP:          "01001000",
		Street:       "Praça da Sé",
		Complement:   "lado ímpar",
		Neighborhood: "Sé",
		City:         "São Paulo",
		State:        "SP",
		IBGE:         "3550308",
		DDD:          "11",
	}
}

type failingStore struct{ err error }

func (f failingStore) FindByCEP(context.Context, string) (*address.Address, error) {
	return nil, f.err
}

func (f failingStore) Upsert(context.Context, address.Address) (*address.Address, error) {
	return nil, f.err
}

func TestService_SearchAddressByCep(t *testing.T) {
	ctx := context.Background()
	store := address.NewMemoryStore()
	_, err := store.Upsert(ctx, sampleAddress())
	require.NoError(t, err)

	svc := address.NewService(store, address.NewMockFetcher(), nil)

	t.Run("found", func(t *testing.T) {
		got, err := svc.SearchAddressByCep(ctx, "01001000")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Praça da Sé", got.Street)
	})

	t.Run("missing is empty not error", func(t *testing.T) {
		got, err := svc.SearchAddressByCep(ctx, "99999999")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("incomplete code rejected", func(t *testing.T) {
		_, err := svc.SearchAddressByCep(ctx, "0100")
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})

	t.Run("store failure is internal", func(t *testing.T) {
		broken := address.NewService(failingStore{err: errors.New("conn reset")}, address.NewMockFetcher(), nil)
		_, err := broken.SearchAddressByCep(ctx, "01001000")
		assert.True(t, domain.IsCode(err, domain.EINTERNAL))
	})
}

func TestService_SyncAddressFromAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("fetched address overwrites local record", func(t *testing.T) {
		store := address.NewMemoryStore()
		stale := sampleAddress()
		stale.Street = "Antiga"
		_, err := store.Upsert(ctx, stale)
		require.NoError(t, err)

		fetcher := address.NewMockFetcher()
		fetcher.FetchFunc = func(ctx context.Context, cep string) (*address.Address, error) {
			a := sampleAddress()
			return &a, nil
		}

		svc := address.NewService(store, fetcher, nil)
		got, err := svc.SyncAddressFromAPI(ctx, "01001000")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, address.SourceViaCEP, got.Source)
		assert.False(t, got.UpdatedAt.IsZero())

		local, err := store.FindByCEP(ctx, "01001000")
		require.NoError(t, err)
		assert.Equal(t, "Praça da Sé", local.Street)
		assert.Equal(t, []string{"01001000"}, fetcher.FetchCalls())
	})

	t.Run("unknown cep is empty and stores nothing", func(t *testing.T) {
		store := address.NewMemoryStore()
		svc := address.NewService(store, address.NewMockFetcher(), nil)

		got, err := svc.SyncAddressFromAPI(ctx, "99999999")
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		fetcher := address.NewMockFetcher()
		fetcher.FetchFunc = func(context.Context, string) (*address.Address, error) {
			return nil, domain.Unavailable(errors.New("timeout"), "viacep.fetch", "down")
		}

		_, err := address.NewService(address.NewMemoryStore(), fetcher, nil).SyncAddressFromAPI(ctx, "01001000")
		assert.True(t, domain.IsCode(err, domain.EUNAVAILABLE))
	})

	t.Run("invalid payload is not stored", func(t *testing.T) {
		fetcher := address.NewMockFetcher()
		fetcher.FetchFunc = func(context.Context, string) (*address.Address, error) {
			return &address.Address{City: "São Paulo", State: "São Paulo"}, nil
		}
		store := address.NewMemoryStore()
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))

		_, err := address.NewService(store, fetcher, logger).SyncAddressFromAPI(ctx, "01001000")
		require.Error(t, err)
		assert.Equal(t, "len", domain.GetValidationFields(err)["state"])
		assert.Equal(t, 0, store.Len())
		assert.Contains(t, logs.String(), "synced address rejected")
		assert.Contains(t, logs.String(), "state:len")
	})
}

func TestService_CheckExternalServiceStatus(t *testing.T) {
	fetcher := address.NewMockFetcher()
	svc := address.NewService(address.NewMemoryStore(), fetcher, nil)

	up, err := svc.CheckExternalServiceStatus(context.Background())
	assert.NoError(t, err)
	assert.True(t, up)

	fetcher.PingFunc = func(context.Context) (bool, error) { return false, errors.New("dns") }
	_, err = svc.CheckExternalServiceStatus(context.Background())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, address.Validate(sampleAddress()))

	bad := sampleAddress()
	bad.CEP = "0100100"
	bad.DDD = "1"
	fields := domain.GetValidationFields(address.Validate(bad))
	assert.Equal(t, "len", fields["cep"])
	assert.Equal(t, "len", fields["ddd"])
}
