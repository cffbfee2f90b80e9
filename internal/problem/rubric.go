package problem

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultPassThreshold is the weighted-score fraction a free-text
// response must reach to count as correct.
const DefaultPassThreshold = 0.5

// Criterion is one binary rubric item with a relative weight.
type Criterion struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Weight      float64  `json:"weight"`
	Category    string   `json:"category,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Rubric scores free-text answers as a weighted sum of binary criteria.
// Weights need not sum to 1; scoring normalizes by the total.
type Rubric struct {
	Criteria      []Criterion `json:"criteria"`
	PassThreshold float64     `json:"pass_threshold,omitempty"`
}

// TotalWeight sums all criterion weights.
func (r *Rubric) TotalWeight() float64 {
	if r == nil {
		return 0
	}
	var total float64
	for _, c := range r.Criteria {
		total += c.Weight
	}
	return total
}

// Threshold returns the pass threshold, falling back to the default.
func (r *Rubric) Threshold() float64 {
	if r == nil || r.PassThreshold <= 0 {
		return DefaultPassThreshold
	}
	return r.PassThreshold
}

// Validate checks the rubric has at least one positively weighted criterion.
func (r *Rubric) Validate() error {
	if r == nil {
		return errors.New("problem: nil rubric")
	}
	if len(r.Criteria) == 0 {
		return errors.New("problem: rubric without criteria")
	}
	seen := make(map[string]bool, len(r.Criteria))
	for _, c := range r.Criteria {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return errors.New("problem: rubric criterion with empty id")
		}
		if seen[id] {
			return fmt.Errorf("problem: duplicate rubric criterion %q", id)
		}
		seen[id] = true
		if c.Weight <= 0 {
			return fmt.Errorf("problem: criterion %q has non-positive weight %v", id, c.Weight)
		}
		if strings.TrimSpace(c.Description) == "" {
			return fmt.Errorf("problem: criterion %q has empty description", id)
		}
	}
	if r.PassThreshold < 0 || r.PassThreshold > 1 {
		return fmt.Errorf("problem: pass threshold %v out of range", r.PassThreshold)
	}
	return nil
}
