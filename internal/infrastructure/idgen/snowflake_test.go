package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake_UniquePositiveIDs(t *testing.T) {
	gen, err := NewSnowflake(1)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 10000)
	var last int64
	for i := 0; i < 10000; i++ {
		id := gen.NextID()
		assert.Positive(t, id)
		assert.Greater(t, id, last)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
		last = id
	}
}

func TestNewSnowflake_RejectsInvalidNode(t *testing.T) {
	_, err := NewSnowflake(5000)
	assert.Error(t, err)
}
