package extrato_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diediegodie/tattoo-studio-system/extrato"
)

func TestForEachBatch_ChunksInOrder(t *testing.T) {
	// GIVEN: 5 items, batch size 2
	// WHEN: Iterating
	// THEN: Three chunks of 2, 2, 1 in original order

	items := []int64{1, 2, 3, 4, 5}
	var chunks [][]int64

	err := extrato.ForEachBatch(items, 2, func(batch []int64) error {
		copied := append([]int64(nil), batch...)
		chunks = append(chunks, copied)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 2}, {3, 4}, {5}}, chunks)
}

func TestForEachBatch_FailFast(t *testing.T) {
	// GIVEN: The second chunk fails
	// WHEN: Iterating
	// THEN: The third chunk is never processed and the error comes back as-is

	boom := errors.New("boom")
	calls := 0

	err := extrato.ForEachBatch([]int{1, 2, 3, 4, 5, 6}, 2, func(batch []int) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestForEachBatch_EmptyInput(t *testing.T) {
	called := false
	err := extrato.ForEachBatch(nil, 10, func(batch []string) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestForEachBatch_InvalidSizeUsesDefault(t *testing.T) {
	items := make([]int, extrato.DefaultBatchSize+1)
	calls := 0

	err := extrato.ForEachBatch(items, 0, func(batch []int) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestNormalizeBatchSize(t *testing.T) {
	assert.Equal(t, extrato.DefaultBatchSize, extrato.NormalizeBatchSize(0))
	assert.Equal(t, extrato.DefaultBatchSize, extrato.NormalizeBatchSize(-5))
	assert.Equal(t, 250, extrato.NormalizeBatchSize(250))
}
