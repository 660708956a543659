package settings

import (
	"time"
)

func NewSettings() *Settings {
	maxMemory, err := parseMemoryUnit(getString("utxocache_maxMemory", "400MB"))
	if err != nil {
		panic(err)
	}

	flushIntervalSeconds := getInt("utxocache_flushIntervalSeconds", 300)
	dbTimeoutMillis := getInt("coinstore_dbTimeoutMillis", 5000)

	return &Settings{
		ClientName: getString("clientName", "chainstate"),
		DataFolder: getString("dataFolder", "data"),
		LogLevel:   getString("logLevel", "INFO"),
		UtxoCache: UtxoCacheSettings{
			MaxMemoryBytes:       maxMemory,
			FlushInterval:        time.Duration(flushIntervalSeconds) * time.Second,
			EvictCleanAfterFlush: getBool("utxocache_evictCleanAfterFlush", true),
			PanicOnLogicError:    getBool("utxocache_panicOnLogicError", false),
		},
		CoinStore: CoinStoreSettings{
			StoreURL:  getURL("coinstore", "sqlitememory:///coins"),
			DBTimeout: time.Duration(dbTimeoutMillis) * time.Millisecond,
		},
	}
}
