// Package coins defines the contract the cache requires from a persistent
// coin store. The store is the durability boundary: BatchWrite must be atomic
// even under a process crash mid-write. The cache layers all dirty/fresh
// bookkeeping on top and never writes through any other path.
package coins

import (
	"context"

	"github.com/bsv-blockchain/chainstate/model"
)

// Upsert is one coin to be written (inserted or overwritten) by a batch.
type Upsert struct {
	Outpoint model.Outpoint
	Coin     *model.Coin
}

// Batch is the unit of atomic commit. All upserts and deletes apply, or none
// do.
type Batch struct {
	Upserts []Upsert
	Deletes []model.Outpoint
}

// Size returns the number of operations in the batch.
func (b *Batch) Size() int {
	if b == nil {
		return 0
	}

	return len(b.Upserts) + len(b.Deletes)
}

type Store interface {
	// Get returns the coin for the outpoint, or errors.ErrCoinNotFound.
	// Any other error is a storage failure and fatal to the caller.
	Get(ctx context.Context, op model.Outpoint) (*model.Coin, error)

	// BatchWrite atomically applies the batch. When sync is true the write
	// must also include a durability barrier (fsync or engine equivalent)
	// before returning.
	BatchWrite(ctx context.Context, batch *Batch, sync bool) error

	// Iterate walks every stored coin. The callback returns false to stop.
	Iterate(ctx context.Context, fn func(model.Outpoint, *model.Coin) bool) error

	// Health reports an http-style status code and a human readable detail.
	Health(ctx context.Context) (int, string, error)

	Close() error
}
