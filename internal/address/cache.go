package address

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedStore keeps recently read addresses in memory in front of a slower Store.
// Misses are not cached, so a sync followed by a search sees the new record.
// Entries expire after the TTL, which bounds how long a write made by another
// process (cepctl seed --force) stays invisible.
type CachedStore struct {
	store Store
	cache *expirable.LRU[string, Address]
}

// NewCachedStore wraps store with an LRU cache of the given size whose entries
// live for ttl. A size of zero or less disables caching and returns store
// unchanged; a ttl of zero or less never expires entries.
func NewCachedStore(store Store, size int, ttl time.Duration) Store {
	if size <= 0 {
		return store
	}
	return &CachedStore{
		store: store,
		cache: expirable.NewLRU[string, Address](size, nil, ttl),
	}
}

func (c *CachedStore) FindByCEP(ctx context.Context, cep string) (*Address, error) {
	if addr, ok := c.cache.Get(cep); ok {
		return &addr, nil
	}

	addr, err := c.store.FindByCEP(ctx, cep)
	if err != nil {
		return nil, err
	}

	c.cache.Add(cep, *addr)
	return addr, nil
}

func (c *CachedStore) Upsert(ctx context.Context, addr Address) (*Address, error) {
	stored, err := c.store.Upsert(ctx, addr)
	if err != nil {
		c.cache.Remove(addr.CEP)
		return nil, err
	}

	c.cache.Add(stored.CEP, *stored)
	return stored, nil
}
