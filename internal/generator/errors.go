package generator

import (
	"fmt"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// GenerationError reports that a category generator could not produce a
// domain-consistent problem within the redraw budget.
type GenerationError struct {
	Category problem.Category
	Variant  string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	if e == nil {
		return "generator: <nil>"
	}
	msg := fmt.Sprintf("generator: %s: gave up after %d draws", e.Category, e.Attempts)
	if e.Variant != "" {
		msg = fmt.Sprintf("generator: %s/%s: gave up after %d draws", e.Category, e.Variant, e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
