// Package sql implements the coin store on database/sql, supporting sqlite
// (dev/test) and postgres DSNs selected by the store URL scheme.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/coins"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

type Store struct {
	logger    ulogger.Logger
	db        *sql.DB
	engine    string
	dbTimeout time.Duration
}

func New(logger ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL) (*Store, error) {
	initPrometheusMetrics()

	db, err := initDB(logger, tSettings, storeURL)
	if err != nil {
		return nil, err
	}

	if err = createSchema(db, storeURL.Scheme); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError("failed to create coins schema", err)
	}

	return &Store{
		logger:    logger,
		db:        db,
		engine:    storeURL.Scheme,
		dbTimeout: tSettings.CoinStore.DBTimeout,
	}, nil
}

func initDB(logger ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL) (*sql.DB, error) {
	switch storeURL.Scheme {
	case "postgres":
		return initPostgresDB(logger, storeURL)
	case "sqlite", "sqlitememory":
		return initSQLiteDB(logger, tSettings, storeURL)
	}

	return nil, errors.NewConfigurationError("db: unknown scheme: %s", storeURL.Scheme)
}

func initPostgresDB(logger ulogger.Logger, storeURL *url.URL) (*sql.DB, error) {
	dbHost := storeURL.Hostname()
	dbPort := storeURL.Port()
	dbName := storeURL.Path[1:]
	dbUser := ""
	dbPassword := ""

	if storeURL.User != nil {
		dbUser = storeURL.User.Username()
		dbPassword, _ = storeURL.User.Password()
	}

	sslMode := "disable"
	if val, ok := storeURL.Query()["sslmode"]; ok && len(val) > 0 {
		sslMode = val[0]
	}

	dbInfo := fmt.Sprintf("user=%s password=%s dbname=%s sslmode=%s host=%s port=%s", dbUser, dbPassword, dbName, sslMode, dbHost, dbPort)

	db, err := sql.Open("postgres", dbInfo)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("failed to open postgres DB", err)
	}

	logger.Infof("[CoinStore] using postgres DB: %s@%s:%s/%s", dbUser, dbHost, dbPort, dbName)

	return db, nil
}

func initSQLiteDB(logger ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL) (*sql.DB, error) {
	var filename string

	if storeURL.Scheme == "sqlitememory" {
		filename = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	} else {
		folder := tSettings.DataFolder
		if err := os.MkdirAll(folder, 0755); err != nil {
			return nil, errors.NewStorageUnavailableError("failed to create data folder %s", folder, err)
		}

		dbName := storeURL.Path[1:]

		abs, err := filepath.Abs(path.Join(folder, fmt.Sprintf("%s.db", dbName)))
		if err != nil {
			return nil, errors.NewStorageUnavailableError("failed to get absolute path for sqlite DB", err)
		}

		/* Don't be tempted by a large busy_timeout. Just masks a bigger problem.
		Fail fast. This is 'dev mode' sqlite after all */
		filename = fmt.Sprintf("%s?cache=shared&_pragma=busy_timeout=5000&_pragma=journal_mode=WAL", abs)
	}

	logger.Infof("[CoinStore] using sqlite DB: %s", filename)

	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("failed to open sqlite DB", err)
	}

	return db, nil
}

func createSchema(db *sql.DB, engine string) error {
	blob := "BLOB"
	if engine == "postgres" {
		blob = "BYTEA"
	}

	q := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS coins (
		 outpoint %s PRIMARY KEY
		,value    BIGINT NOT NULL
		,height   INTEGER NOT NULL
		,coinbase BOOLEAN NOT NULL
		,script   %s NOT NULL
		)
	`, blob, blob)

	_, err := db.Exec(q)

	return err
}

func (s *Store) Get(ctx context.Context, op model.Outpoint) (*model.Coin, error) {
	prometheusCoinsGet.Inc()

	ctx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	key := op.Key()

	q := `
		SELECT value, height, coinbase, script
		FROM coins
		WHERE outpoint = $1
	`

	coin := &model.Coin{}

	var value int64

	err := s.db.QueryRowContext(ctx, q, key[:]).Scan(&value, &coin.Height, &coin.Coinbase, &coin.Script)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewCoinNotFoundError("coin %s not in %s store", op.String(), s.engine)
		}

		prometheusCoinsErrors.WithLabelValues("Get", err.Error()).Inc()

		return nil, errors.NewStorageError("sql get %s failed", op.String(), err)
	}

	coin.Value = uint64(value)

	return coin, nil
}

func (s *Store) BatchWrite(ctx context.Context, batch *coins.Batch, sync bool) error {
	prometheusCoinsBatchWrite.Inc()

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin coins transaction", err)
	}

	defer func() {
		_ = txn.Rollback()
	}()

	upsertQ := `
		INSERT INTO coins (outpoint, value, height, coinbase, script)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (outpoint) DO UPDATE SET
		 value    = excluded.value
		,height   = excluded.height
		,coinbase = excluded.coinbase
		,script   = excluded.script
	`

	for _, u := range batch.Upserts {
		key := u.Outpoint.Key()

		// nolint: gosec
		if _, err = txn.ExecContext(ctx, upsertQ, key[:], int64(u.Coin.Value), u.Coin.Height, u.Coin.Coinbase, u.Coin.Script); err != nil {
			prometheusCoinsErrors.WithLabelValues("BatchWrite", err.Error()).Inc()

			return errors.NewStorageError("sql upsert of %s failed", u.Outpoint.String(), err)
		}
	}

	for _, op := range batch.Deletes {
		key := op.Key()

		if _, err = txn.ExecContext(ctx, `DELETE FROM coins WHERE outpoint = $1`, key[:]); err != nil {
			prometheusCoinsErrors.WithLabelValues("BatchWrite", err.Error()).Inc()

			return errors.NewStorageError("sql delete of %s failed", op.String(), err)
		}
	}

	if err = txn.Commit(); err != nil {
		prometheusCoinsErrors.WithLabelValues("BatchWrite", err.Error()).Inc()

		return errors.NewStorageError("sql commit of %d ops failed", batch.Size(), err)
	}

	if sync && s.engine == "sqlite" {
		// WAL commits are durable against app crash but not OS crash until
		// checkpointed. Full flushes request the stronger barrier.
		if _, err = s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(FULL)`); err != nil {
			return errors.NewStorageError("sqlite wal checkpoint failed", err)
		}
	}

	prometheusCoinsBatchOps.Add(float64(batch.Size()))

	return nil
}

func (s *Store) Iterate(ctx context.Context, fn func(model.Outpoint, *model.Coin) bool) error {
	rows, err := s.db.QueryContext(ctx, `SELECT outpoint, value, height, coinbase, script FROM coins`)
	if err != nil {
		return errors.NewStorageError("sql iterate failed", err)
	}

	defer rows.Close()

	for rows.Next() {
		var (
			key   []byte
			value int64
			coin  model.Coin
		)

		if err = rows.Scan(&key, &value, &coin.Height, &coin.Coinbase, &coin.Script); err != nil {
			return errors.NewStorageError("sql iterate scan failed", err)
		}

		op, err := model.NewOutpointFromKey(key)
		if err != nil {
			return errors.NewStorageError("corrupt outpoint key in %s store", s.engine, err)
		}

		coin.Value = uint64(value)

		if !fn(op, &coin) {
			return nil
		}
	}

	if err = rows.Err(); err != nil {
		return errors.NewStorageError("sql iterate failed", err)
	}

	return nil
}

func (s *Store) Health(ctx context.Context) (int, string, error) {
	details := fmt.Sprintf("SQL engine is %s", s.engine)

	var num int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&num); err != nil {
		return http.StatusServiceUnavailable, details, err
	}

	return http.StatusOK, details, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
