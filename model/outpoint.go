package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/chainstate/errors"
)

// OutpointKeySize is the length of the store key for one outpoint:
// 32-byte txid followed by the little-endian output index.
const OutpointKeySize = chainhash.HashSize + 4

// Outpoint identifies one transaction output. It is the key of the UTXO set.
type Outpoint struct {
	TxID  chainhash.Hash
	Index uint32
}

func NewOutpoint(txID chainhash.Hash, index uint32) Outpoint {
	return Outpoint{TxID: txID, Index: index}
}

// Key returns the fixed-width store key, txid || little-endian index.
func (o Outpoint) Key() [OutpointKeySize]byte {
	var b [OutpointKeySize]byte

	copy(b[:], o.TxID[:])
	b[32] = byte(o.Index)
	b[33] = byte(o.Index >> 8)
	b[34] = byte(o.Index >> 16)
	b[35] = byte(o.Index >> 24)

	return b
}

// NewOutpointFromKey is the inverse of Key.
func NewOutpointFromKey(b []byte) (Outpoint, error) {
	if len(b) != OutpointKeySize {
		return Outpoint{}, errors.NewInvalidArgumentError("outpoint key must be %d bytes, got %d", OutpointKeySize, len(b))
	}

	var o Outpoint

	copy(o.TxID[:], b[:32])
	o.Index = uint32(b[32]) | uint32(b[33])<<8 | uint32(b[34])<<16 | uint32(b[35])<<24

	return o, nil
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID.String(), o.Index)
}

// NewOutpointFromString parses the "txid:index" form produced by String.
func NewOutpointFromString(s string) (Outpoint, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Outpoint{}, errors.NewInvalidArgumentError("outpoint must be txid:index, got %q", s)
	}

	hash, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return Outpoint{}, errors.NewInvalidArgumentError("invalid txid in outpoint %q", s, err)
	}

	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Outpoint{}, errors.NewInvalidArgumentError("invalid index in outpoint %q", s, err)
	}

	return Outpoint{TxID: *hash, Index: uint32(index)}, nil
}
