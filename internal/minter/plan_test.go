package minter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limited(t *testing.T, id string, size, limit uint64) LimitedEdition {
	t.Helper()
	e, err := NewLimitedEdition(Edition{ID: id, Size: size, Limit: u64(limit)})
	require.NoError(t, err)
	return e
}

func batchSizes(batches []Batch) []int {
	sizes := make([]int, len(batches))
	for i, b := range batches {
		sizes[i] = b.Size
	}
	return sizes
}

func TestPlan_SplitsIntoFixedBatches(t *testing.T) {
	batches, err := Plan([]LimitedEdition{limited(t, "1", 0, 12)}, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 5, 2}, batchSizes(batches))
	n, items := PlanSize([]LimitedEdition{limited(t, "1", 0, 12)}, 5)
	assert.Equal(t, len(batches), n)
	assert.Equal(t, 12, items)
}

func TestPlan_PreservesEditionOrder(t *testing.T) {
	batches, err := Plan([]LimitedEdition{
		limited(t, "b", 0, 3),
		limited(t, "a", 1, 5),
	}, 2)
	require.NoError(t, err)

	var ids []string
	for _, b := range batches {
		ids = append(ids, b.Edition.ID)
	}
	assert.Equal(t, []string{"b", "b", "a", "a"}, ids)
	assert.Equal(t, []int{2, 1, 2, 2}, batchSizes(batches))
}

func TestPlan_SkipsFullEditions(t *testing.T) {
	batches, err := Plan([]LimitedEdition{
		limited(t, "full", 5, 5),
		limited(t, "over", 6, 5),
		limited(t, "empty", 0, 0),
	}, 10)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestPlan_RejectsBatchSizeBelowOne(t *testing.T) {
	_, err := Plan([]LimitedEdition{limited(t, "1", 0, 1)}, 0)
	assert.True(t, HasCode(err, ErrCodeInvalidRequest))
}

func TestPlan_NeverExceedsCapacity(t *testing.T) {
	for size := uint64(0); size <= 12; size++ {
		for limit := uint64(0); limit <= 12; limit++ {
			for batchSize := 1; batchSize <= 13; batchSize++ {
				e := limited(t, "1", size, limit)
				batches, err := Plan([]LimitedEdition{e}, batchSize)
				require.NoError(t, err)

				total := 0
				for _, b := range batches {
					require.Positive(t, b.Size)
					require.LessOrEqual(t, b.Size, batchSize)
					total += b.Size
				}
				assert.Equal(t, int(e.Remaining()), total,
					"size=%d limit=%d batch=%d", size, limit, batchSize)
				if size >= limit {
					assert.Empty(t, batches)
				}
			}
		}
	}
}

func TestPlanSize_LargeEditionWithoutMaterializing(t *testing.T) {
	huge := limited(t, "huge", 1, math.MaxInt64)

	n, items := PlanSize([]LimitedEdition{huge}, 10)
	assert.Equal(t, (math.MaxInt64-1)/10+1, n)
	assert.Equal(t, math.MaxInt64-1, items)

	var first []int
	for b := range Batches([]LimitedEdition{huge}, 10) {
		first = append(first, b.Size)
		if len(first) == 3 {
			break
		}
	}
	assert.Equal(t, []int{10, 10, 10}, first)
}

func TestPlanSize_SaturatesAcrossEditions(t *testing.T) {
	editions := []LimitedEdition{
		limited(t, "a", 0, math.MaxInt64),
		limited(t, "b", 0, math.MaxInt64),
		limited(t, "c", 0, math.MaxInt64),
	}
	n, items := PlanSize(editions, 1)
	assert.Equal(t, math.MaxInt, n)
	assert.Equal(t, math.MaxInt, items)
}
