package model

import (
	"fmt"

	"github.com/bsv-blockchain/chainstate/errors"
)

// Coin is the data stored for one unspent transaction output. A Coin is never
// persisted in a spent state; spent-ness lives in the cache layer only.
type Coin struct {
	// Value is the amount in satoshis.
	Value uint64

	// Script is the locking script, opaque to this subsystem.
	Script []byte

	// Height is the height of the block the output was created in.
	Height uint32

	// Coinbase marks outputs of coinbase transactions.
	Coinbase bool
}

func NewCoin(value uint64, script []byte, height uint32, coinbase bool) *Coin {
	// The script is deep copied since callers typically hand us a subslice of
	// a transaction's contiguous buffer and the coin may outlive it.
	s := make([]byte, len(script))
	copy(s, script)

	return &Coin{
		Value:    value,
		Script:   s,
		Height:   height,
		Coinbase: coinbase,
	}
}

// Clone returns a copy that shares no memory with the receiver.
func (c *Coin) Clone() *Coin {
	if c == nil {
		return nil
	}

	return NewCoin(c.Value, c.Script, c.Height, c.Coinbase)
}

// Bytes serializes the coin: value u64 LE, (height<<1)|coinbase u32 LE,
// script length u32 LE, script.
func (c *Coin) Bytes() []byte {
	b := make([]byte, 0, 8+4+4+len(c.Script))

	b = append(b, byte(c.Value), byte(c.Value>>8), byte(c.Value>>16), byte(c.Value>>24),
		byte(c.Value>>32), byte(c.Value>>40), byte(c.Value>>48), byte(c.Value>>56))

	var flag uint32
	if c.Coinbase {
		flag = 1
	}

	encodedHeight := (c.Height << 1) | flag
	b = append(b, byte(encodedHeight), byte(encodedHeight>>8), byte(encodedHeight>>16), byte(encodedHeight>>24))

	// nolint: gosec
	scriptLen := uint32(len(c.Script))
	b = append(b, byte(scriptLen), byte(scriptLen>>8), byte(scriptLen>>16), byte(scriptLen>>24))

	b = append(b, c.Script...)

	return b
}

// NewCoinFromBytes is the inverse of Bytes.
func NewCoinFromBytes(b []byte) (*Coin, error) {
	if len(b) < 16 {
		return nil, errors.NewStorageError("coin record too short: %d bytes", len(b))
	}

	c := &Coin{
		Value: uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
			uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56,
	}

	encodedHeight := uint32(b[8]) | uint32(b[9])<<8 | uint32(b[10])<<16 | uint32(b[11])<<24
	c.Height = encodedHeight >> 1
	c.Coinbase = (encodedHeight & 1) == 1

	scriptLen := uint32(b[12]) | uint32(b[13])<<8 | uint32(b[14])<<16 | uint32(b[15])<<24
	if uint32(len(b)-16) != scriptLen {
		return nil, errors.NewStorageError("coin record script length mismatch: header says %d, have %d", scriptLen, len(b)-16)
	}

	c.Script = make([]byte, scriptLen)
	copy(c.Script, b[16:])

	return c, nil
}

func (c *Coin) String() string {
	if c.Coinbase {
		return fmt.Sprintf("%d sat (height %d, coinbase) - %x", c.Value, c.Height, c.Script)
	}

	return fmt.Sprintf("%d sat (height %d) - %x", c.Value, c.Height, c.Script)
}
