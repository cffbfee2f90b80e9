package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/finbench/internal/dataset"
	"github.com/stellarlinkco/finbench/internal/generator"
	"github.com/stellarlinkco/finbench/internal/problem"
)

type generateOptions struct {
	seed       int64
	count      int
	out        string
	categories []string
}

func newGenerateCmd(st *cliState) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate a benchmark problem pool",
		Args:    cobra.NoArgs,
		PreRunE: loadConfigPreRun(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, st, &opts)
		},
	}

	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "generation seed (overrides config)")
	cmd.Flags().IntVar(&opts.count, "count", 0, "number of problems (overrides config)")
	cmd.Flags().StringVar(&opts.out, "out", "data/problems.jsonl", "output pool file")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "restrict to categories (repeatable)")

	return cmd
}

func runGenerate(cmd *cobra.Command, st *cliState, opts *generateOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("generate: missing config (internal error)")
	}

	seed := st.cfg.Generator.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.seed
	}
	count := st.cfg.Generator.Count
	if opts.count > 0 {
		count = opts.count
	}

	spec := generator.Spec{
		Seed:      seed,
		Count:     count,
		CreatedAt: time.Now().UTC(),
	}
	if len(opts.categories) > 0 {
		mix, err := parseCategories(opts.categories)
		if err != nil {
			return err
		}
		spec.CategoryMix = mix
	}

	problems, err := generator.NewBank().Generate(spec)
	if err != nil {
		return err
	}
	if err := dataset.WriteProblems(opts.out, problems); err != nil {
		return err
	}

	byCategory := make(map[problem.Category]int)
	for i := range problems {
		byCategory[problems[i].Category]++
	}
	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%d\n", c, byCategory[problem.Category(c)])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d problems to %s (seed %d)\n", len(problems), opts.out, seed)
	return nil
}

func parseCategories(raw []string) (map[problem.Category]float64, error) {
	mix := make(map[problem.Category]float64, len(raw))
	share := 1.0 / float64(len(raw))
	for _, r := range raw {
		c := problem.Category(strings.TrimSpace(r))
		if !c.Valid() {
			return nil, fmt.Errorf("generate: unknown category %q", r)
		}
		mix[c] = share
	}
	return mix, nil
}
