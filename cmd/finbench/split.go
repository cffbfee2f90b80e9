package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/finbench/internal/dataset"
)

type splitOptions struct {
	input      string
	dir        string
	seed       int64
	train      float64
	validation float64
	test       float64
}

func newSplitCmd(st *cliState) *cobra.Command {
	var opts splitOptions

	cmd := &cobra.Command{
		Use:     "split",
		Short:   "Partition a problem pool into train/validation/test",
		Args:    cobra.NoArgs,
		PreRunE: loadConfigPreRun(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "data/problems.jsonl", "problem pool file")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "dataset output directory (overrides config)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "split seed (overrides config)")
	cmd.Flags().Float64Var(&opts.train, "train", 0, "train ratio (overrides config)")
	cmd.Flags().Float64Var(&opts.validation, "validation", 0, "validation ratio (overrides config)")
	cmd.Flags().Float64Var(&opts.test, "test", 0, "test ratio (overrides config)")

	return cmd
}

func runSplit(cmd *cobra.Command, st *cliState, opts *splitOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("split: missing config (internal error)")
	}

	problems, err := dataset.ReadProblems(cmd.Context(), opts.input)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		return fmt.Errorf("split: empty problem pool %s", opts.input)
	}

	seed := st.cfg.Generator.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.seed
	}

	ratios := dataset.Ratios{
		Train:      st.cfg.Dataset.TrainRatio,
		Validation: st.cfg.Dataset.ValidationRatio,
		Test:       st.cfg.Dataset.TestRatio,
	}
	if cmd.Flags().Changed("train") {
		ratios.Train = opts.train
	}
	if cmd.Flags().Changed("validation") {
		ratios.Validation = opts.validation
	}
	if cmd.Flags().Changed("test") {
		ratios.Test = opts.test
	}

	splits, err := dataset.StratifiedSplit(problems, ratios, seed)
	if err != nil {
		return err
	}

	dir := strings.TrimSpace(opts.dir)
	if dir == "" {
		dir = st.cfg.Dataset.Dir
	}
	if err := dataset.Write(dir, splits, seed, ratios); err != nil {
		return err
	}

	for _, split := range dataset.Splits() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d problems\n", split, len(splits[split]))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dataset written to %s (seed %d)\n", dir, seed)
	return nil
}
