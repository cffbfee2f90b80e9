package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// Split names one partition of a dataset.
type Split string

const (
	SplitTrain      Split = "train"
	SplitValidation Split = "validation"
	SplitTest       Split = "test"
)

// Splits returns all splits in canonical order.
func Splits() []Split {
	return []Split{SplitTrain, SplitValidation, SplitTest}
}

// Valid reports whether s is a known split.
func (s Split) Valid() bool {
	switch s {
	case SplitTrain, SplitValidation, SplitTest:
		return true
	}
	return false
}

// Ratios holds the target share of each split.
type Ratios struct {
	Train      float64 `json:"train"`
	Validation float64 `json:"validation"`
	Test       float64 `json:"test"`
}

// DefaultRatios returns the standard 60/20/20 partitioning.
func DefaultRatios() Ratios {
	return Ratios{Train: 0.6, Validation: 0.2, Test: 0.2}
}

// Validate checks the ratios are non-negative and sum to 1.
func (r Ratios) Validate() error {
	if r.Train < 0 || r.Validation < 0 || r.Test < 0 {
		return fmt.Errorf("dataset: negative split ratio %+v", r)
	}
	sum := r.Train + r.Validation + r.Test
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("dataset: split ratios sum to %v, want 1", sum)
	}
	return nil
}

// StratifiedSplit partitions problems into train/validation/test,
// stratifying by (category, difficulty) so every split mirrors the
// overall composition. Membership is a pure function of the seed.
func StratifiedSplit(problems []problem.Problem, ratios Ratios, seed int64) (map[Split][]problem.Problem, error) {
	if len(problems) == 0 {
		return nil, errors.New("dataset: no problems to split")
	}
	if err := ratios.Validate(); err != nil {
		return nil, err
	}

	type cellKey struct {
		cat  problem.Category
		diff problem.Difficulty
	}
	cells := make(map[cellKey][]int)
	for i := range problems {
		k := cellKey{cat: problems[i].Category, diff: problems[i].Difficulty}
		cells[k] = append(cells[k], i)
	}

	// Deterministic cell order so the shared rng stream is stable.
	keys := make([]cellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].cat != keys[b].cat {
			return keys[a].cat < keys[b].cat
		}
		return keys[a].diff < keys[b].diff
	})

	rng := rand.New(rand.NewSource(seed))
	out := map[Split][]problem.Problem{
		SplitTrain:      nil,
		SplitValidation: nil,
		SplitTest:       nil,
	}
	for _, k := range keys {
		idx := cells[k]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		nTrain, nVal, _ := apportionCell(len(idx), ratios)
		for j, i := range idx {
			switch {
			case j < nTrain:
				out[SplitTrain] = append(out[SplitTrain], problems[i])
			case j < nTrain+nVal:
				out[SplitValidation] = append(out[SplitValidation], problems[i])
			default:
				out[SplitTest] = append(out[SplitTest], problems[i])
			}
		}
	}
	return out, nil
}

// apportionCell splits n items across the three ratios using largest
// remainders so the counts sum to n exactly.
func apportionCell(n int, r Ratios) (train, val, test int) {
	shares := []float64{r.Train, r.Validation, r.Test}
	counts := make([]int, 3)
	type frac struct {
		idx int
		rem float64
	}
	rems := make([]frac, 0, 3)
	assigned := 0
	for i, s := range shares {
		exact := float64(n) * s
		counts[i] = int(math.Floor(exact))
		assigned += counts[i]
		rems = append(rems, frac{idx: i, rem: exact - math.Floor(exact)})
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].rem > rems[b].rem })
	for k := 0; assigned < n; k++ {
		counts[rems[k%3].idx]++
		assigned++
	}
	return counts[0], counts[1], counts[2]
}
