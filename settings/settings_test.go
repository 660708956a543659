package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettingsDefaults(t *testing.T) {
	s := NewSettings()
	require.NotNil(t, s)

	assert.Equal(t, uint64(400)<<20, s.UtxoCache.MaxMemoryBytes)
	assert.Equal(t, 5*time.Minute, s.UtxoCache.FlushInterval)
	assert.True(t, s.UtxoCache.EvictCleanAfterFlush)
	assert.False(t, s.UtxoCache.PanicOnLogicError)

	require.NotNil(t, s.CoinStore.StoreURL)
	assert.Equal(t, "sqlitememory", s.CoinStore.StoreURL.Scheme)
	assert.Equal(t, 5*time.Second, s.CoinStore.DBTimeout)
}

func TestParseMemoryUnit(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"0", 0},
		{"1024", 1024},
		{"1KB", 1 << 10},
		{"400MB", 400 << 20},
		{"4GB", 4 << 30},
		{" 16 mb ", 16 << 20},
	}

	for _, tt := range tests {
		got, err := parseMemoryUnit(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseMemoryUnit("lots")
	assert.Error(t, err)
}
