package minter

import (
	"iter"
	"math"
	"slices"
)

// Batch is one mint call: Size new items into Edition.
type Batch struct {
	Edition LimitedEdition
	Size    int
}

// Plan splits each edition's remaining capacity into batches of at most
// batchSize items. Editions keep their input order and an edition's batches
// are contiguous; editions already at capacity yield no batches.
func Plan(editions []LimitedEdition, batchSize int) ([]Batch, error) {
	if err := checkBatchSize(batchSize); err != nil {
		return nil, err
	}
	return slices.Collect(Batches(editions, batchSize)), nil
}

// Batches yields the batches of Plan one at a time, so a plan over a very
// large edition never has to be held in memory. batchSize must be at least 1.
func Batches(editions []LimitedEdition, batchSize int) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		for _, edition := range editions {
			remaining := edition.Remaining()
			for remaining > 0 {
				size := min(uint64(batchSize), remaining)
				if !yield(Batch{Edition: edition, Size: int(size)}) {
					return
				}
				remaining -= size
			}
		}
	}
}

// PlanSize returns how many batches and items Plan would produce without
// building it. Both counts saturate at math.MaxInt.
func PlanSize(editions []LimitedEdition, batchSize int) (batches, items int) {
	var nb, ni uint64
	for _, edition := range editions {
		remaining := edition.Remaining()
		ni = saturatingAdd(ni, remaining)
		nb = saturatingAdd(nb, remaining/uint64(batchSize))
		if remaining%uint64(batchSize) != 0 {
			nb = saturatingAdd(nb, 1)
		}
	}
	return clampInt(nb), clampInt(ni)
}

func checkBatchSize(batchSize int) error {
	if batchSize < 1 {
		return newError(ErrCodeInvalidRequest, "batch size must be at least 1, got %d", batchSize)
	}
	return nil
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func clampInt(n uint64) int {
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}
