package coincache

import (
	"context"
	"time"

	"github.com/looplab/fsm"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

// FlushMode selects the policy under which FlushIfNeeded decides to drain
// the cache. The numeric values are part of the emitted event format and
// must not change.
type FlushMode uint32

const (
	// FlushModeNone never triggers implicitly, only an explicit ForceFlush
	// runs.
	FlushModeNone FlushMode = iota

	// FlushModeIfNeeded triggers once memory usage reaches the configured
	// ceiling.
	FlushModeIfNeeded

	// FlushModePeriodic triggers on the memory ceiling or once the
	// configured interval has elapsed since the last successful flush.
	FlushModePeriodic

	// FlushModeAlways triggers unconditionally whenever evaluated.
	FlushModeAlways
)

func (m FlushMode) String() string {
	switch m {
	case FlushModeNone:
		return "NONE"
	case FlushModeIfNeeded:
		return "IF_NEEDED"
	case FlushModePeriodic:
		return "PERIODIC"
	case FlushModeAlways:
		return "ALWAYS"
	default:
		return "UNKNOWN"
	}
}

const (
	stateIdle     = "Idle"
	stateFlushing = "Flushing"

	eventFlush  = "flush"
	eventFinish = "finish"
)

// FlushController decides when the cache's dirty set is drained and performs
// the drain as one atomic batch against the backing store. It shares the
// cache's mutex, so a flush excludes all cache mutation for its full
// duration and always commits a consistent dirty set.
type FlushController struct {
	logger   ulogger.Logger
	settings *settings.Settings
	cache    *CoinCache
	sink     EventSink

	state *fsm.FSM

	// lastFlush is reset only on flush success so a failed PERIODIC flush
	// retries on the next evaluation.
	lastFlush time.Time

	// now is replaceable in tests to drive the periodic trigger.
	now func() time.Time
}

func NewFlushController(logger ulogger.Logger, tSettings *settings.Settings, cache *CoinCache, sink EventSink) *FlushController {
	f := &FlushController{
		logger:   logger,
		settings: tSettings,
		cache:    cache,
		sink:     sink,
		now:      time.Now,
	}

	f.state = fsm.NewFSM(
		stateIdle,
		fsm.Events{
			{
				Name: eventFlush,
				Src:  []string{stateIdle},
				Dst:  stateFlushing,
			},
			{
				Name: eventFinish,
				Src:  []string{stateFlushing},
				Dst:  stateIdle,
			},
		},
		fsm.Callbacks{},
	)

	f.lastFlush = f.now()

	return f
}

// FlushIfNeeded evaluates the flush policy for the given mode and drains the
// cache when it triggers. It reports whether a flush ran. A storage failure
// is returned unwrapped from the flush and is fatal to the caller.
func (f *FlushController) FlushIfNeeded(ctx context.Context, mode FlushMode) (bool, error) {
	f.cache.mu.Lock()
	defer f.cache.mu.Unlock()

	if !f.shouldFlushLocked(mode) {
		return false, nil
	}

	if err := f.flushLocked(ctx, mode, false, false); err != nil {
		return false, err
	}

	return true, nil
}

// ForceFlush drains the cache unconditionally. prune marks the flush as tied
// to a pruning operation and forces a full flush; full requests a durability
// barrier on the store write. Used for shutdown and pre-prune flushes.
func (f *FlushController) ForceFlush(ctx context.Context, prune bool, full bool) error {
	f.cache.mu.Lock()
	defer f.cache.mu.Unlock()

	if prune {
		// pruning deletes block files the cache may still need to reconcile
		// against, it must never run over unflushed state
		full = true
	}

	return f.flushLocked(ctx, FlushModeAlways, prune, full)
}

func (f *FlushController) shouldFlushLocked(mode FlushMode) bool {
	switch mode {
	case FlushModeNone:
		return false
	case FlushModeIfNeeded:
		return f.cache.memUsage >= f.settings.UtxoCache.MaxMemoryBytes
	case FlushModePeriodic:
		return f.cache.memUsage >= f.settings.UtxoCache.MaxMemoryBytes ||
			f.now().Sub(f.lastFlush) >= f.settings.UtxoCache.FlushInterval
	case FlushModeAlways:
		return true
	default:
		return false
	}
}

// flushLocked performs the atomic drain. The caller holds the cache mutex.
// On commit failure no flags are cleared, leaving the identical dirty set
// for the caller's shutdown path to observe; there is no retry here.
func (f *FlushController) flushLocked(ctx context.Context, mode FlushMode, prune bool, full bool) error {
	if err := f.state.Event(ctx, eventFlush); err != nil {
		return errors.NewFlushInProgressError("flush already in progress", err)
	}

	defer func() {
		_ = f.state.Event(ctx, eventFinish)
	}()

	start := f.now()
	memBefore := f.cache.memUsage

	batch, dirtyCount := f.cache.collectDirtyLocked()

	f.logger.Debugf("[FlushController] flushing %d dirty coins (%d bytes cached, mode %s, prune %v, full %v)",
		dirtyCount, memBefore, mode, prune, full)

	if err := f.cache.store.BatchWrite(ctx, batch, full); err != nil {
		prometheusFlushErrors.Inc()
		f.logger.Errorf("[FlushController] flush of %d coins failed: %v", dirtyCount, err)

		return errors.NewStorageError("failed to commit flush batch of %d coins", dirtyCount, err)
	}

	f.cache.clearDirtyLocked(f.settings.UtxoCache.EvictCleanAfterFlush)
	f.lastFlush = f.now()

	duration := f.lastFlush.Sub(start)

	f.emit(FlushEvent{
		Duration:      uint64(duration.Microseconds()),
		Mode:          uint32(mode),
		CoinsCount:    dirtyCount,
		CoinsMemUsage: memBefore,
		IsFlushPrune:  prune,
		IsFullFlush:   full,
	})

	f.logger.Infof("[FlushController] flushed %d coins in %s (mode %s, prune %v, full %v)",
		dirtyCount, duration, mode, prune, full)

	return nil
}
