package settings

import (
	"net/url"
	"time"
)

type UtxoCacheSettings struct {
	// MaxMemoryBytes is the flush ceiling C. Once the cache's live memory
	// accounting reaches this value, IF_NEEDED and PERIODIC flushes trigger.
	MaxMemoryBytes uint64

	// FlushInterval is the periodic interval I used by the PERIODIC mode.
	FlushInterval time.Duration

	// EvictCleanAfterFlush drops clean entries from the in-memory map after a
	// successful flush. The backing store is authoritative for clean entries,
	// so dropping them cannot lose state.
	EvictCleanAfterFlush bool

	// PanicOnLogicError makes Add panic on an outpoint collision instead of
	// returning ErrCoinExists. Meant for debug builds and tests.
	PanicOnLogicError bool
}

type CoinStoreSettings struct {
	StoreURL  *url.URL
	DBTimeout time.Duration
}

type Settings struct {
	ClientName string
	DataFolder string
	LogLevel   string
	UtxoCache  UtxoCacheSettings
	CoinStore  CoinStoreSettings
}
