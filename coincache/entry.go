package coincache

import "github.com/bsv-blockchain/chainstate/model"

// entryState tracks what the backing store knows about a cached coin.
//
//   - entryClean: the store holds exactly this state, nothing to flush.
//   - entryDirty: mutated since the last flush, the store holds stale state
//     (or, for a spent entry, a coin that must be deleted).
//   - entryDirtyFresh: created entirely inside the cache since the last
//     flush, the store has never seen this outpoint. A fresh entry that is
//     spent can be dropped outright.
type entryState uint8

const (
	entryClean entryState = iota
	entryDirty
	entryDirtyFresh
)

func (s entryState) dirty() bool {
	return s == entryDirty || s == entryDirtyFresh
}

// entry is one resident cache slot. A spent entry carries no coin payload,
// it only records that the outpoint must be deleted from the store on the
// next flush (unless it is fresh, in which case it is erased immediately
// and never reaches this state).
type entry struct {
	coin  *model.Coin
	state entryState
	spent bool

	// size is the last accounted contribution of this entry to the cache's
	// memory usage counter. Kept per entry so state changes can apply exact
	// deltas.
	size uint64
}

// Memory model constants. The absolute values are a policy knob, only the
// relative threshold behavior is observable; what matters is that the size
// function is deterministic and monotonic in script length.
const (
	// entryOverheadSize covers the fixed coin fields (value, height,
	// coinbase) and the entry bookkeeping itself.
	entryOverheadSize = 32

	// mapOverhead approximates the per-slot cost of the entries map.
	mapOverhead = 16
)

// entrySize returns the modeled memory contribution of an entry. Spent
// entries pending deletion keep only the overhead terms since their script
// has been released.
func entrySize(e *entry) uint64 {
	size := uint64(entryOverheadSize + model.OutpointKeySize + mapOverhead)

	if !e.spent && e.coin != nil {
		size += uint64(len(e.coin.Script))
	}

	return size
}
