package coincache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/coins/memory"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

type recordingSink struct {
	events []FlushEvent
}

func (s *recordingSink) Emit(event FlushEvent) {
	s.events = append(s.events, event)
}

type panickingSink struct{}

func (panickingSink) Emit(FlushEvent) {
	panic("sink is broken")
}

func newTestController(tSettings *settings.Settings, store *memory.Memory, sink EventSink) (*CoinCache, *FlushController) {
	cache := NewCoinCache(ulogger.TestLogger{}, tSettings, store)
	controller := NewFlushController(ulogger.TestLogger{}, tSettings, cache, sink)

	return cache, controller
}

func TestRoundTripAcrossCacheInstances(t *testing.T) {
	ctx := context.Background()
	store := memory.New(ulogger.TestLogger{})
	tSettings := newTestSettings()

	cache, controller := newTestController(tSettings, store, nil)

	op := outpoint(1)
	coin := testCoin(123456, 30)

	require.NoError(t, cache.Add(ctx, op, coin, false))
	require.NoError(t, controller.ForceFlush(ctx, false, true))

	// a brand new cache over the same store must see the exact coin
	fresh := NewCoinCache(ulogger.TestLogger{}, tSettings, store)

	got, err := fresh.Get(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, coin, got)
}

func TestSpendRemovesFromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New(ulogger.TestLogger{})
	cache, controller := newTestController(newTestSettings(), store, nil)

	op := outpoint(1)

	require.NoError(t, cache.Add(ctx, op, testCoin(100, 10), false))
	require.NoError(t, controller.ForceFlush(ctx, false, false))
	assert.Equal(t, 1, store.Len())

	ok, err := cache.Spend(ctx, op)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, controller.ForceFlush(ctx, false, false))
	assert.Equal(t, 0, store.Len())

	_, err = cache.Get(ctx, op)
	assert.True(t, errors.Is(err, errors.ErrCoinNotFound))
}

func TestFlushModeNoneNeverTriggers(t *testing.T) {
	ctx := context.Background()
	tSettings := newTestSettings()
	tSettings.UtxoCache.MaxMemoryBytes = 1

	store := memory.New(ulogger.TestLogger{})
	cache, controller := newTestController(tSettings, store, nil)

	require.NoError(t, cache.Add(ctx, outpoint(1), testCoin(100, 100), false))

	flushed, err := controller.FlushIfNeeded(ctx, FlushModeNone)
	require.NoError(t, err)
	assert.False(t, flushed)
	assert.Equal(t, 0, store.BatchWriteCalls())
}

func TestFlushModeIfNeededGatesOnCeiling(t *testing.T) {
	ctx := context.Background()
	tSettings := newTestSettings()
	tSettings.UtxoCache.MaxMemoryBytes = 1000

	store := memory.New(ulogger.TestLogger{})
	cache, controller := newTestController(tSettings, store, nil)

	// one entry stays well under the 1000 byte ceiling
	require.NoError(t, cache.Add(ctx, outpoint(1), testCoin(100, 10), false))
	require.Less(t, cache.MemoryUsage(), uint64(1000))

	flushed, err := controller.FlushIfNeeded(ctx, FlushModeIfNeeded)
	require.NoError(t, err)
	assert.False(t, flushed)

	// grow past the ceiling
	for i := uint32(2); cache.MemoryUsage() < 1000; i++ {
		require.NoError(t, cache.Add(ctx, outpoint(i), testCoin(100, 50), false))
	}

	flushed, err = controller.FlushIfNeeded(ctx, FlushModeIfNeeded)
	require.NoError(t, err)
	assert.True(t, flushed)
	assert.Equal(t, 1, store.BatchWriteCalls())
	assert.Equal(t, 0, cache.Stats().DirtyCount)
}

func TestFlushModePeriodicTriggersOnInterval(t *testing.T) {
	ctx := context.Background()
	tSettings := newTestSettings()
	tSettings.UtxoCache.FlushInterval = 60 * time.Second

	store := memory.New(ulogger.TestLogger{})
	_, controller := newTestController(tSettings, store, nil)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	controller.now = func() time.Time { return clock }
	controller.lastFlush = clock

	// usage is zero and the interval has not elapsed
	flushed, err := controller.FlushIfNeeded(ctx, FlushModePeriodic)
	require.NoError(t, err)
	assert.False(t, flushed)

	clock = clock.Add(59 * time.Second)

	flushed, err = controller.FlushIfNeeded(ctx, FlushModePeriodic)
	require.NoError(t, err)
	assert.False(t, flushed)

	// at 60s the periodic trigger fires even at zero usage
	clock = clock.Add(1 * time.Second)

	flushed, err = controller.FlushIfNeeded(ctx, FlushModePeriodic)
	require.NoError(t, err)
	assert.True(t, flushed)

	// the clock was reset by the successful flush
	flushed, err = controller.FlushIfNeeded(ctx, FlushModePeriodic)
	require.NoError(t, err)
	assert.False(t, flushed)
}

func TestFlushModeAlwaysTriggers(t *testing.T) {
	ctx := context.Background()
	store := memory.New(ulogger.TestLogger{})
	_, controller := newTestController(newTestSettings(), store, nil)

	flushed, err := controller.FlushIfNeeded(ctx, FlushModeAlways)
	require.NoError(t, err)
	assert.True(t, flushed)
	assert.Equal(t, 1, store.BatchWriteCalls())
}

func TestAtomicityUnderInjectedFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New(ulogger.TestLogger{})
	sink := &recordingSink{}
	cache, controller := newTestController(newTestSettings(), store, sink)

	for i := uint32(1); i <= 10; i++ {
		require.NoError(t, cache.Add(ctx, outpoint(i), testCoin(uint64(i), 20), false))
	}

	statsBefore := cache.Stats()
	require.Equal(t, 10, statsBefore.DirtyCount)

	store.FailNextBatchWrite(errors.NewStorageError("disk full"))

	err := controller.ForceFlush(ctx, false, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStorageError))

	// nothing was committed and the dirty set is unchanged
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, statsBefore.DirtyCount, cache.Stats().DirtyCount)
	assert.Equal(t, statsBefore.MemoryUsage, cache.Stats().MemoryUsage)

	// no event for a failed flush
	assert.Empty(t, sink.events)

	// a retry of the same dirty set succeeds and is equivalent to success on
	// the first attempt
	require.NoError(t, controller.ForceFlush(ctx, false, false))
	assert.Equal(t, 10, store.Len())
	assert.Equal(t, 0, cache.Stats().DirtyCount)

	require.Len(t, sink.events, 1)
	assert.Equal(t, uint64(10), sink.events[0].CoinsCount)
}

func TestFlushEventFields(t *testing.T) {
	ctx := context.Background()
	store := memory.New(ulogger.TestLogger{})
	sink := &recordingSink{}
	cache, controller := newTestController(newTestSettings(), store, sink)

	for i := uint32(1); i <= 50; i++ {
		require.NoError(t, cache.Add(ctx, outpoint(i), testCoin(uint64(i), 16), false))
	}

	memBefore := cache.MemoryUsage()
	require.NotZero(t, memBefore)

	require.NoError(t, controller.ForceFlush(ctx, false, true))

	require.Len(t, sink.events, 1)
	event := sink.events[0]

	assert.Equal(t, uint64(50), event.CoinsCount)
	assert.Equal(t, memBefore, event.CoinsMemUsage)
	assert.Equal(t, uint32(FlushModeAlways), event.Mode)
	assert.False(t, event.IsFlushPrune)
	assert.True(t, event.IsFullFlush)

	// a full flush must have requested the durability barrier
	assert.Equal(t, 1, store.SyncWrites())
}

func TestPruneImpliesFullFlush(t *testing.T) {
	ctx := context.Background()
	store := memory.New(ulogger.TestLogger{})
	sink := &recordingSink{}
	cache, controller := newTestController(newTestSettings(), store, sink)

	require.NoError(t, cache.Add(ctx, outpoint(1), testCoin(100, 10), false))

	// full=false is overridden by prune
	require.NoError(t, controller.ForceFlush(ctx, true, false))

	require.Len(t, sink.events, 1)
	assert.True(t, sink.events[0].IsFlushPrune)
	assert.True(t, sink.events[0].IsFullFlush)
	assert.Equal(t, 1, store.SyncWrites())
}

func TestEvictCleanAfterFlush(t *testing.T) {
	ctx := context.Background()
	tSettings := newTestSettings()
	tSettings.UtxoCache.EvictCleanAfterFlush = true

	store := memory.New(ulogger.TestLogger{})
	cache, controller := newTestController(tSettings, store, nil)

	for i := uint32(1); i <= 5; i++ {
		require.NoError(t, cache.Add(ctx, outpoint(i), testCoin(uint64(i), 10), false))
	}

	require.NoError(t, controller.ForceFlush(ctx, false, false))

	// everything is clean now and was dropped; the store remains
	// authoritative
	assert.Equal(t, 0, cache.EntryCount())
	assert.Equal(t, uint64(0), cache.MemoryUsage())
	assert.Equal(t, 5, store.Len())

	got, err := cache.Get(ctx, outpoint(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Value)
}

func TestSinkPanicDoesNotFailFlush(t *testing.T) {
	ctx := context.Background()
	store := memory.New(ulogger.TestLogger{})
	cache, controller := newTestController(newTestSettings(), store, panickingSink{})

	require.NoError(t, cache.Add(ctx, outpoint(1), testCoin(100, 10), false))

	require.NoError(t, controller.ForceFlush(ctx, false, false))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 0, cache.Stats().DirtyCount)
}

func TestNilSinkDropsEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.New(ulogger.TestLogger{})
	cache, controller := newTestController(newTestSettings(), store, nil)

	require.NoError(t, cache.Add(ctx, outpoint(1), testCoin(100, 10), false))
	require.NoError(t, controller.ForceFlush(ctx, false, false))
	assert.Equal(t, 1, store.Len())
}

func TestFlushModeString(t *testing.T) {
	assert.Equal(t, "NONE", FlushModeNone.String())
	assert.Equal(t, "IF_NEEDED", FlushModeIfNeeded.String())
	assert.Equal(t, "PERIODIC", FlushModePeriodic.String())
	assert.Equal(t, "ALWAYS", FlushModeAlways.String())
	assert.Equal(t, "UNKNOWN", FlushMode(99).String())
}
