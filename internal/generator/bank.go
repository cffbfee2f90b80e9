package generator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// maxDraws bounds how many times a generator may redraw scenario
// parameters before giving up on one problem.
const maxDraws = 10

// Spec describes the dataset a Bank should produce. The same Spec with
// the same Seed always yields the same problems.
type Spec struct {
	Seed  int64
	Count int
	// CategoryMix maps categories to relative shares. Nil means an even
	// split across all categories.
	CategoryMix map[problem.Category]float64
	// DifficultyMix maps difficulties to draw probabilities. Nil means
	// the default distribution.
	DifficultyMix map[problem.Difficulty]float64
	// CreatedAt, when set, is stamped on every generated problem.
	CreatedAt time.Time
}

// DefaultDifficultyMix returns the standard difficulty distribution.
func DefaultDifficultyMix() map[problem.Difficulty]float64 {
	return map[problem.Difficulty]float64{
		problem.DifficultyEasy:   0.25,
		problem.DifficultyMedium: 0.35,
		problem.DifficultyHard:   0.30,
		problem.DifficultyExpert: 0.10,
	}
}

// categoryGenerator produces problems for one category. Implementations
// must derive all randomness from the supplied rng.
type categoryGenerator interface {
	Category() problem.Category
	Generate(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error)
}

// Bank holds one generator per category and orchestrates dataset
// generation.
type Bank struct {
	gens []categoryGenerator
}

// NewBank builds a bank covering every category.
func NewBank() *Bank {
	return &Bank{gens: []categoryGenerator{
		earningsSurpriseGenerator{},
		dcfSanityGenerator{},
		redFlagGenerator{},
		catalystGenerator{},
		formulaAuditGenerator{},
		statementGenerator{},
		valuationGenerator{},
	}}
}

// Generate produces spec.Count problems apportioned across categories.
// Each category draws from its own seeded source so adding or removing
// one category does not disturb the others.
func (b *Bank) Generate(spec Spec) ([]problem.Problem, error) {
	if b == nil || len(b.gens) == 0 {
		return nil, errors.New("generator: empty bank")
	}
	if spec.Count <= 0 {
		return nil, fmt.Errorf("generator: count %d, want > 0", spec.Count)
	}
	diffMix := spec.DifficultyMix
	if diffMix == nil {
		diffMix = DefaultDifficultyMix()
	}
	if err := validateMix(diffMix); err != nil {
		return nil, err
	}

	counts, err := b.apportion(spec.Count, spec.CategoryMix)
	if err != nil {
		return nil, err
	}

	out := make([]problem.Problem, 0, spec.Count)
	for i, gen := range b.gens {
		if counts[i] == 0 {
			continue
		}
		rng := rand.New(rand.NewSource(spec.Seed + int64(i)))
		seen := make(map[string]bool, counts[i])
		for j := 0; j < counts[i]; j++ {
			d := drawDifficulty(rng, diffMix)
			p, err := generateOne(gen, rng, d, seen)
			if err != nil {
				return nil, err
			}
			if !spec.CreatedAt.IsZero() {
				p.CreatedAt = spec.CreatedAt.UTC()
			}
			out = append(out, *p)
		}
	}
	return out, nil
}

// generateOne draws until the generator yields a valid, unseen problem
// or the draw budget runs out.
func generateOne(gen categoryGenerator, rng *rand.Rand, d problem.Difficulty, seen map[string]bool) (*problem.Problem, error) {
	var lastErr error
	for attempt := 0; attempt < maxDraws; attempt++ {
		p, err := gen.Generate(rng, d)
		if err != nil {
			lastErr = err
			continue
		}
		if err := p.Validate(); err != nil {
			lastErr = err
			continue
		}
		if seen[p.ID] {
			lastErr = fmt.Errorf("generator: duplicate problem %s", p.ID)
			continue
		}
		seen[p.ID] = true
		return p, nil
	}
	return nil, &GenerationError{Category: gen.Category(), Attempts: maxDraws, Err: lastErr}
}

func (b *Bank) apportion(total int, mix map[problem.Category]float64) ([]int, error) {
	shares := make([]float64, len(b.gens))
	if mix == nil {
		for i := range shares {
			shares[i] = 1
		}
	} else {
		for cat, share := range mix {
			if !cat.Valid() {
				return nil, fmt.Errorf("generator: unknown category %q in mix", cat)
			}
			if share < 0 {
				return nil, fmt.Errorf("generator: negative share for %q", cat)
			}
		}
		for i, gen := range b.gens {
			shares[i] = mix[gen.Category()]
		}
	}

	var sum float64
	for _, s := range shares {
		sum += s
	}
	if sum <= 0 {
		return nil, errors.New("generator: category mix has no positive share")
	}

	// Largest remainder apportionment so counts sum to total exactly.
	counts := make([]int, len(shares))
	type frac struct {
		idx int
		rem float64
	}
	rems := make([]frac, 0, len(shares))
	assigned := 0
	for i, s := range shares {
		exact := float64(total) * s / sum
		counts[i] = int(math.Floor(exact))
		assigned += counts[i]
		rems = append(rems, frac{idx: i, rem: exact - math.Floor(exact)})
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].rem > rems[b].rem })
	for k := 0; assigned < total; k++ {
		counts[rems[k%len(rems)].idx]++
		assigned++
	}
	return counts, nil
}

func validateMix(mix map[problem.Difficulty]float64) error {
	var sum float64
	for d, p := range mix {
		if !d.Valid() {
			return fmt.Errorf("generator: unknown difficulty %q in mix", d)
		}
		if p < 0 {
			return fmt.Errorf("generator: negative probability for %q", d)
		}
		sum += p
	}
	if sum <= 0 {
		return errors.New("generator: difficulty mix has no positive probability")
	}
	return nil
}

// drawDifficulty samples a difficulty from the mix. Iteration follows
// the canonical difficulty order so sampling stays deterministic.
func drawDifficulty(rng *rand.Rand, mix map[problem.Difficulty]float64) problem.Difficulty {
	var sum float64
	for _, d := range problem.Difficulties() {
		sum += mix[d]
	}
	r := rng.Float64() * sum
	var acc float64
	for _, d := range problem.Difficulties() {
		acc += mix[d]
		if r < acc {
			return d
		}
	}
	return problem.DifficultyExpert
}
