package sampling

import (
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
)

var (
	// ErrInsufficientPopulation reports that the sequence ended before k items
	// were produced. Reservoir never truncates a sample silently.
	ErrInsufficientPopulation = errors.New("sample larger than population")
	// ErrInvalidSampleSize reports a negative sample size.
	ErrInvalidSampleSize = errors.New("sample size must not be negative")
)

// Reservoir returns k items drawn uniformly at random from seq in a single
// pass using O(k) memory. Each item of an n-item sequence is included with
// probability k/n. The order of the returned items is random.
//
// If seq yields fewer than k items the error wraps ErrInsufficientPopulation
// and no sample is returned.
func Reservoir[T any](seq iter.Seq[T], k int, rng *rand.Rand) ([]T, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleSize, k)
	}
	if k == 0 {
		return []T{}, nil
	}
	if rng == nil {
		rng = NewRand(0)
	}

	results := make([]T, 0, k)
	i := 0
	for item := range seq {
		if i < k {
			results = append(results, item)
			i++
			if i == k {
				rng.Shuffle(len(results), func(a, b int) {
					results[a], results[b] = results[b], results[a]
				})
			}
			continue
		}
		// Replace at a decreasing rate: item i survives with probability k/(i+1).
		if r := rng.IntN(i + 1); r < k {
			results[r] = item
		}
		i++
	}

	if i < k {
		return nil, fmt.Errorf("%w: wanted %d, population %d", ErrInsufficientPopulation, k, i)
	}
	return results, nil
}

// NewRand returns a PCG-backed random source. A zero seed draws the seed
// from the runtime's entropy source.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
