package coincache

// FlushEvent is the record emitted after every successful flush. External
// tracing tooling consumes these fields in exactly this set and order.
type FlushEvent struct {
	// Duration is the wall-clock time of the flush call in microseconds.
	Duration uint64

	// Mode is the numeric flush mode in effect (see FlushMode).
	Mode uint32

	// CoinsCount is the number of dirty entries committed.
	CoinsCount uint64

	// CoinsMemUsage is the cache memory usage in bytes observed immediately
	// before the flush began.
	CoinsMemUsage uint64

	// IsFlushPrune reports whether the flush was tied to a pruning
	// operation.
	IsFlushPrune bool

	// IsFullFlush reports whether a durability barrier was requested.
	IsFullFlush bool
}

// EventSink receives flush events. Implementations must not block; a sink
// failure or panic never fails the flush that produced the event.
type EventSink interface {
	Emit(event FlushEvent)
}

// emit hands the event to the sink, if any. A nil sink drops the event and
// a panicking sink is contained here.
func (f *FlushController) emit(event FlushEvent) {
	if f.sink == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			f.logger.Errorf("[FlushController] event sink panic: %v", r)
		}
	}()

	f.sink.Emit(event)
}
