// Package memory implements the coin store as an in-process map. It is meant
// for tests and tooling: it counts every call per outpoint and can be told to
// fail the next batch write, which the cache tests use to verify flush
// atomicity.
package memory

import (
	"context"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/coins"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

type Memory struct {
	logger ulogger.Logger

	mu    sync.Mutex
	coins map[model.Outpoint]*model.Coin

	getCalls        map[model.Outpoint]int
	batchWriteCalls int
	syncWrites      int
	batchWriteErr   error
}

func New(logger ulogger.Logger) *Memory {
	return &Memory{
		logger:   logger,
		coins:    make(map[model.Outpoint]*model.Coin),
		getCalls: make(map[model.Outpoint]int),
	}
}

func (m *Memory) Get(_ context.Context, op model.Outpoint) (*model.Coin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls[op]++

	coin, ok := m.coins[op]
	if !ok {
		return nil, errors.NewCoinNotFoundError("coin %s not in memory store", op.String())
	}

	return coin.Clone(), nil
}

func (m *Memory) BatchWrite(_ context.Context, batch *coins.Batch, sync bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batchWriteCalls++

	if sync {
		m.syncWrites++
	}

	if m.batchWriteErr != nil {
		err := m.batchWriteErr
		m.batchWriteErr = nil

		return err
	}

	for _, u := range batch.Upserts {
		m.coins[u.Outpoint] = u.Coin.Clone()
	}

	for _, op := range batch.Deletes {
		delete(m.coins, op)
	}

	return nil
}

func (m *Memory) Iterate(_ context.Context, fn func(model.Outpoint, *model.Coin) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for op, coin := range m.coins {
		if !fn(op, coin.Clone()) {
			return nil
		}
	}

	return nil
}

func (m *Memory) Health(_ context.Context) (int, string, error) {
	return http.StatusOK, "Memory store available", nil
}

func (m *Memory) Close() error {
	return nil
}

// FailNextBatchWrite makes the next BatchWrite return err without applying
// any of the batch.
func (m *Memory) FailNextBatchWrite(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batchWriteErr = err
}

// GetCalls returns how many times Get was invoked for the outpoint.
func (m *Memory) GetCalls(op model.Outpoint) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.getCalls[op]
}

// BatchWriteCalls returns how many times BatchWrite was invoked.
func (m *Memory) BatchWriteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.batchWriteCalls
}

// SyncWrites returns how many batch writes requested a durability barrier.
func (m *Memory) SyncWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.syncWrites
}

// Len returns the number of stored coins.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.coins)
}
