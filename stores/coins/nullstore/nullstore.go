// Package nullstore provides a coin store that discards all writes and
// reports every outpoint as missing. It exists for benchmarks and for
// running the cache with persistence disabled.
package nullstore

import (
	"context"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/coins"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

type NullStore struct {
	logger ulogger.Logger
}

func New(logger ulogger.Logger) *NullStore {
	return &NullStore{logger: logger}
}

func (n *NullStore) Get(_ context.Context, op model.Outpoint) (*model.Coin, error) {
	return nil, errors.NewCoinNotFoundError("coin not found: %s", op.String())
}

func (n *NullStore) BatchWrite(_ context.Context, _ *coins.Batch, _ bool) error {
	return nil
}

func (n *NullStore) Iterate(_ context.Context, _ func(model.Outpoint, *model.Coin) bool) error {
	return nil
}

func (n *NullStore) Health(_ context.Context) (int, string, error) {
	return 200, "NullStore", nil
}

func (n *NullStore) Close() error {
	return nil
}
