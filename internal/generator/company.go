package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// Sector groups companies with similar margin and growth profiles so
// generated figures stay plausible for the business described.
type sector struct {
	Name     string
	Prefixes []string
	Suffixes []string
	// Typical operating ranges used by generators to keep draws realistic.
	GrossMarginLo, GrossMarginHi float64
	RevGrowthLo, RevGrowthHi     float64
}

var sectors = []sector{
	{
		Name:          "technology",
		Prefixes:      []string{"Quantum", "Cyber", "Data", "Cloud", "Nexus", "Vertex", "Apex"},
		Suffixes:      []string{"Systems", "Technologies", "Dynamics", "Labs", "Soft"},
		GrossMarginLo: 0.55, GrossMarginHi: 0.85,
		RevGrowthLo: 0.05, RevGrowthHi: 0.40,
	},
	{
		Name:          "healthcare",
		Prefixes:      []string{"Bio", "Medi", "Gene", "Vital", "Helix", "Nova"},
		Suffixes:      []string{"Therapeutics", "Health", "Pharma", "Sciences", "Care"},
		GrossMarginLo: 0.50, GrossMarginHi: 0.80,
		RevGrowthLo: 0.03, RevGrowthHi: 0.25,
	},
	{
		Name:          "industrials",
		Prefixes:      []string{"Titan", "Forge", "Atlas", "Summit", "Keystone", "Granite"},
		Suffixes:      []string{"Industries", "Manufacturing", "Holdings", "Works", "Group"},
		GrossMarginLo: 0.20, GrossMarginHi: 0.40,
		RevGrowthLo: 0.01, RevGrowthHi: 0.12,
	},
	{
		Name:          "consumer",
		Prefixes:      []string{"Evergreen", "Harbor", "Orchard", "Beacon", "Pioneer"},
		Suffixes:      []string{"Brands", "Retail", "Goods", "Foods", "Stores"},
		GrossMarginLo: 0.25, GrossMarginHi: 0.55,
		RevGrowthLo: 0.00, RevGrowthHi: 0.10,
	},
	{
		Name:          "financials",
		Prefixes:      []string{"Sterling", "Meridian", "Crown", "Anchor", "Liberty"},
		Suffixes:      []string{"Financial", "Capital", "Bancorp", "Partners", "Trust"},
		GrossMarginLo: 0.40, GrossMarginHi: 0.70,
		RevGrowthLo: 0.01, RevGrowthHi: 0.15,
	},
	{
		Name:          "energy",
		Prefixes:      []string{"Solar", "Delta", "Basin", "Ridge", "Frontier"},
		Suffixes:      []string{"Energy", "Resources", "Power", "Petroleum", "Renewables"},
		GrossMarginLo: 0.15, GrossMarginHi: 0.45,
		RevGrowthLo: -0.05, RevGrowthHi: 0.20,
	},
}

// drawCompany picks a sector and composes a plausible company name.
func drawCompany(rng *rand.Rand) (string, sector) {
	s := sectors[rng.Intn(len(sectors))]
	name := pick(rng, s.Prefixes) + " " + pick(rng, s.Suffixes)
	return name, s
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.Intn(len(items))]
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func moneyM(v float64) string   { return fmt.Sprintf("$%.0fM", v) }
func ratioStr(v float64) string { return fmt.Sprintf("%.2fx", v) }

var optionLetters = []string{"A", "B", "C", "D"}

// finishMCQ shuffles the option texts and assigns fresh letter ids so
// the correct letter is uniformly distributed. texts[correctIdx] is the
// correct option before shuffling.
func finishMCQ(rng *rand.Rand, texts []string, correctIdx int) ([]problem.Option, string) {
	order := rng.Perm(len(texts))
	opts := make([]problem.Option, len(texts))
	correct := ""
	for pos, src := range order {
		opts[pos] = problem.Option{ID: optionLetters[pos], Text: texts[src]}
		if src == correctIdx {
			correct = optionLetters[pos]
		}
	}
	return opts, correct
}
