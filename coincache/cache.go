// Package coincache implements the in-memory write-back overlay over a coin
// store, together with the flush controller that drains it. Validation reads
// and mutates coins through CoinCache; the FlushController decides when the
// accumulated dirty set is committed to the store as one atomic batch.
//
// All cache and controller state is guarded by a single mutex. Flush holds
// the lock for the full collect-and-commit duration so it always observes a
// consistent dirty set.
package coincache

import (
	"context"
	"sync"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/coins"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

type CoinCache struct {
	logger   ulogger.Logger
	settings *settings.Settings
	store    coins.Store

	mu      sync.Mutex
	entries map[model.Outpoint]*entry

	// dirtyIndex holds the outpoints of all dirty entries so a flush can
	// collect them without scanning the whole map.
	dirtyIndex map[model.Outpoint]struct{}

	// memUsage is maintained incrementally on every mutation. It is never
	// recomputed by rescanning except in tests.
	memUsage uint64

	hits   uint64
	misses uint64
}

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Hits        uint64
	Misses      uint64
	EntryCount  int
	DirtyCount  int
	MemoryUsage uint64
}

func NewCoinCache(logger ulogger.Logger, tSettings *settings.Settings, store coins.Store) *CoinCache {
	initPrometheusMetrics()

	return &CoinCache{
		logger:     logger,
		settings:   tSettings,
		store:      store,
		entries:    make(map[model.Outpoint]*entry),
		dirtyIndex: make(map[model.Outpoint]struct{}),
	}
}

// Get returns the coin for the outpoint. On a cache miss the store is
// consulted and a hit there is inserted as a clean entry before returning.
// A miss in both returns errors.ErrCoinNotFound.
func (c *CoinCache) Get(ctx context.Context, op model.Outpoint) (*model.Coin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[op]; ok {
		c.hits++
		prometheusCacheHits.Inc()

		if e.spent {
			// the cache knows the coin no longer exists, even if the store
			// still holds it pending deletion
			return nil, errors.NewCoinNotFoundError("coin not found: %s", op.String())
		}

		return e.coin.Clone(), nil
	}

	c.misses++
	prometheusCacheMisses.Inc()

	e, err := c.pullLocked(ctx, op)
	if err != nil {
		return nil, err
	}

	return e.coin.Clone(), nil
}

// pullLocked fetches a coin from the store on a cache miss and inserts it as
// a clean, non-fresh entry.
func (c *CoinCache) pullLocked(ctx context.Context, op model.Outpoint) (*entry, error) {
	coin, err := c.store.Get(ctx, op)
	if err != nil {
		if errors.Is(err, errors.ErrCoinNotFound) {
			return nil, err
		}

		return nil, errors.NewStorageError("failed to read coin %s from store", op.String(), err)
	}

	e := &entry{
		coin:  coin,
		state: entryClean,
	}
	e.size = entrySize(e)

	c.entries[op] = e
	c.memUsage += e.size

	return e, nil
}

// Add inserts or overwrites the coin at the outpoint and marks the entry
// dirty. An outpoint never seen by the store is additionally marked fresh.
// When possibleOverwrite is false and an unspent coin is already cached for
// the outpoint, Add returns errors.ErrCoinExists (or panics when
// utxocache_panicOnLogicError is set); this guards against transaction id
// collisions being silently accepted.
func (c *CoinCache) Add(_ context.Context, op model.Outpoint, coin *model.Coin, possibleOverwrite bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing := c.entries[op]

	if existing != nil && !existing.spent && !possibleOverwrite {
		err := errors.NewCoinExistsError("coin already exists: %s", op.String())

		if c.settings.UtxoCache.PanicOnLogicError {
			c.logger.Errorf("[CoinCache] %v", err)
			panic(err)
		}

		return err
	}

	state := entryDirtyFresh
	oldSize := uint64(0)

	if existing != nil {
		oldSize = existing.size

		// an entry the store may already know about can never become fresh
		// again, its old state must still be reconciled at flush time
		if existing.state != entryDirtyFresh {
			state = entryDirty
		}
	}

	e := &entry{
		coin:  coin.Clone(),
		state: state,
	}
	e.size = entrySize(e)

	c.entries[op] = e
	c.dirtyIndex[op] = struct{}{}
	c.memUsage += e.size - oldSize

	prometheusCacheMemUsage.Set(float64(c.memUsage))
	prometheusCacheEntries.Set(float64(len(c.entries)))

	return nil
}

// Spend marks the outpoint as removed. A fresh entry is erased on the spot
// since the store never knew it existed. Any other resident entry is
// retained, spent and dirty, pending flush-time deletion. Spending an
// outpoint that is absent from both cache and store returns (false, nil);
// the caller treats that as a validation failure, not a cache error.
func (c *CoinCache) Spend(ctx context.Context, op model.Outpoint) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[op]
	if !ok {
		var err error

		e, err = c.pullLocked(ctx, op)
		if err != nil {
			if errors.Is(err, errors.ErrCoinNotFound) {
				return false, nil
			}

			return false, err
		}
	}

	if e.spent {
		return false, nil
	}

	if e.state == entryDirtyFresh {
		delete(c.entries, op)
		delete(c.dirtyIndex, op)
		c.memUsage -= e.size

		prometheusCacheMemUsage.Set(float64(c.memUsage))
		prometheusCacheEntries.Set(float64(len(c.entries)))

		return true, nil
	}

	oldSize := e.size

	e.spent = true
	e.coin = nil
	e.state = entryDirty
	e.size = entrySize(e)

	c.dirtyIndex[op] = struct{}{}
	c.memUsage += e.size - oldSize

	prometheusCacheMemUsage.Set(float64(c.memUsage))

	return true, nil
}

// MemoryUsage returns the live accounting counter in bytes.
func (c *CoinCache) MemoryUsage() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.memUsage
}

// EntryCount returns the number of resident entries.
func (c *CoinCache) EntryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *CoinCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		EntryCount:  len(c.entries),
		DirtyCount:  len(c.dirtyIndex),
		MemoryUsage: c.memUsage,
	}
}

// collectDirtyLocked builds the atomic batch for the current dirty set.
// Spent entries become deletes, everything else an upsert. Cost is
// proportional to the dirty count, not the resident entry count.
func (c *CoinCache) collectDirtyLocked() (*coins.Batch, uint64) {
	batch := &coins.Batch{}

	for op := range c.dirtyIndex {
		e := c.entries[op]

		if e.spent {
			batch.Deletes = append(batch.Deletes, op)
		} else {
			batch.Upserts = append(batch.Upserts, coins.Upsert{Outpoint: op, Coin: e.coin})
		}
	}

	return batch, uint64(len(c.dirtyIndex))
}

// clearDirtyLocked transitions the cache to the post-flush state after a
// successful commit. Spent entries are gone from the store and are erased
// here too; everything else becomes clean. When evictClean is set, clean
// entries are dropped as well since the store is now authoritative for them.
func (c *CoinCache) clearDirtyLocked(evictClean bool) {
	for op := range c.dirtyIndex {
		e := c.entries[op]

		if e.spent || evictClean {
			delete(c.entries, op)
			c.memUsage -= e.size

			continue
		}

		e.state = entryClean
	}

	c.dirtyIndex = make(map[model.Outpoint]struct{})

	if evictClean {
		for op, e := range c.entries {
			if e.state == entryClean {
				delete(c.entries, op)
				c.memUsage -= e.size
			}
		}
	}

	prometheusCacheMemUsage.Set(float64(c.memUsage))
	prometheusCacheEntries.Set(float64(len(c.entries)))
}
