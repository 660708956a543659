// Package leveldb implements the coin store on a local LevelDB database, the
// same on-disk engine Bitcoin nodes use for their chainstate.
package leveldb

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/opt"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/coins"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

type Store struct {
	logger ulogger.Logger
	db     *leveldb.DB
	path   string
}

// New opens (or creates) the LevelDB database named by the store URL path,
// relative to the configured data folder. Compression is disabled: coin
// records are small and mostly incompressible script bytes.
func New(logger ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL) (*Store, error) {
	initPrometheusMetrics()

	dbName := strings.TrimPrefix(storeURL.Path, "/")
	if dbName == "" {
		return nil, errors.NewConfigurationError("leveldb store URL has no path: %s", storeURL.String())
	}

	path := filepath.Join(tSettings.DataFolder, dbName)

	db, err := leveldb.OpenFile(path, &opt.Options{
		Compression: opt.NoCompression,
	})
	if err != nil {
		return nil, errors.NewStorageUnavailableError("failed to open leveldb at %s", path, err)
	}

	logger.Infof("[CoinStore] using leveldb at %s", path)

	return &Store{
		logger: logger,
		db:     db,
		path:   path,
	}, nil
}

func (s *Store) Get(_ context.Context, op model.Outpoint) (*model.Coin, error) {
	prometheusCoinsGet.Inc()

	key := op.Key()

	value, err := s.db.Get(key[:], nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, errors.NewCoinNotFoundError("coin %s not in leveldb", op.String())
		}

		prometheusCoinsErrors.WithLabelValues("Get", err.Error()).Inc()

		return nil, errors.NewStorageError("leveldb get %s failed", op.String(), err)
	}

	coin, err := model.NewCoinFromBytes(value)
	if err != nil {
		prometheusCoinsErrors.WithLabelValues("Get", "corrupt record").Inc()

		return nil, errors.NewStorageError("corrupt coin record for %s", op.String(), err)
	}

	return coin, nil
}

func (s *Store) BatchWrite(_ context.Context, batch *coins.Batch, sync bool) error {
	prometheusCoinsBatchWrite.Inc()

	ldbBatch := new(leveldb.Batch)

	for _, u := range batch.Upserts {
		key := u.Outpoint.Key()
		ldbBatch.Put(key[:], u.Coin.Bytes())
	}

	for _, op := range batch.Deletes {
		key := op.Key()
		ldbBatch.Delete(key[:])
	}

	if err := s.db.Write(ldbBatch, &opt.WriteOptions{Sync: sync}); err != nil {
		prometheusCoinsErrors.WithLabelValues("BatchWrite", err.Error()).Inc()

		return errors.NewStorageError("leveldb batch write of %d ops failed", batch.Size(), err)
	}

	prometheusCoinsBatchOps.Add(float64(batch.Size()))

	return nil
}

func (s *Store) Iterate(ctx context.Context, fn func(model.Outpoint, *model.Coin) bool) error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		select {
		case <-ctx.Done():
			return errors.NewProcessingError("iterate canceled", ctx.Err())
		default:
		}

		op, err := model.NewOutpointFromKey(iter.Key())
		if err != nil {
			return errors.NewStorageError("corrupt outpoint key in leveldb", err)
		}

		coin, err := model.NewCoinFromBytes(iter.Value())
		if err != nil {
			return errors.NewStorageError("corrupt coin record for %s", op.String(), err)
		}

		if !fn(op, coin) {
			return nil
		}
	}

	if err := iter.Error(); err != nil {
		return errors.NewStorageError("leveldb iteration failed", err)
	}

	return nil
}

func (s *Store) Health(_ context.Context) (int, string, error) {
	// A point read exercises the full read path without depending on any key
	// being present.
	if _, err := s.db.Get([]byte("health"), nil); err != nil && err != leveldb.ErrNotFound {
		return http.StatusServiceUnavailable, "LevelDB store unavailable", err
	}

	return http.StatusOK, "LevelDB store available at " + s.path, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
