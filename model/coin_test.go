package model

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinBytesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		coin *Coin
	}{
		{"standard", NewCoin(5000000000, []byte{0x76, 0xa9, 0x14}, 100, false)},
		{"coinbase", NewCoin(2500000000, []byte{0x51}, 840000, true)},
		{"empty script", NewCoin(1, nil, 0, false)},
		{"zero value", NewCoin(0, []byte{0x6a}, 1, false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.coin.Bytes()

			got, err := NewCoinFromBytes(b)
			require.NoError(t, err)

			assert.Equal(t, tt.coin.Value, got.Value)
			assert.Equal(t, tt.coin.Height, got.Height)
			assert.Equal(t, tt.coin.Coinbase, got.Coinbase)
			assert.Equal(t, tt.coin.Script, got.Script)
		})
	}
}

func TestNewCoinFromBytesErrors(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := NewCoinFromBytes([]byte{1, 2, 3})
		require.Error(t, err)
	})

	t.Run("script length mismatch", func(t *testing.T) {
		b := NewCoin(1, []byte{0x51, 0x52}, 10, false).Bytes()
		_, err := NewCoinFromBytes(b[:len(b)-1])
		require.Error(t, err)
	})
}

func TestCoinClone(t *testing.T) {
	c := NewCoin(42, []byte{0x51}, 7, true)

	clone := c.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, c, clone)

	clone.Script[0] = 0x00
	assert.Equal(t, byte(0x51), c.Script[0], "clone must not share script memory")

	var nilCoin *Coin
	assert.Nil(t, nilCoin.Clone())
}

func TestNewCoinCopiesScript(t *testing.T) {
	script := []byte{0x51, 0x52}
	c := NewCoin(1, script, 1, false)

	script[0] = 0x00
	assert.Equal(t, byte(0x51), c.Script[0])
}

func TestOutpointKeyRoundTrip(t *testing.T) {
	hash, err := chainhash.NewHashFromStr("6fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000")
	require.NoError(t, err)

	op := NewOutpoint(*hash, 7)
	key := op.Key()

	assert.Equal(t, OutpointKeySize, len(key))
	assert.Equal(t, hash[:], key[:32])

	got, err := NewOutpointFromKey(key[:])
	require.NoError(t, err)
	assert.Equal(t, op, got)

	_, err = NewOutpointFromKey(key[:35])
	require.Error(t, err)
}

func TestOutpointString(t *testing.T) {
	hash, err := chainhash.NewHashFromStr("6fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000")
	require.NoError(t, err)

	op := NewOutpoint(*hash, 3)

	parsed, err := NewOutpointFromString(op.String())
	require.NoError(t, err)
	assert.Equal(t, op, parsed)

	_, err = NewOutpointFromString("nonsense")
	require.Error(t, err)

	_, err = NewOutpointFromString("xyz:1")
	require.Error(t, err)

	_, err = NewOutpointFromString(hash.String() + ":notanumber")
	require.Error(t, err)
}
