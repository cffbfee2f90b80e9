package main

import (
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/finbench/internal/app"
	"github.com/stellarlinkco/finbench/internal/dataset"
	"github.com/stellarlinkco/finbench/internal/leaderboard"
	"github.com/stellarlinkco/finbench/internal/llm"
	"github.com/stellarlinkco/finbench/internal/metrics"
	"github.com/stellarlinkco/finbench/internal/problem"
	"github.com/stellarlinkco/finbench/internal/store"
)

type runOptions struct {
	model        string
	provider     string
	split        string
	categories   []string
	difficulties []string
	limit        int
	datasetDir   string
	outputDir    string
	concurrency  int
	noSubmit     bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Evaluate a model over a dataset split",
		Args:    cobra.NoArgs,
		PreRunE: loadConfigPreRun(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "model identifier for the leaderboard")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name (overrides config default)")
	cmd.Flags().StringVar(&opts.split, "split", string(dataset.SplitTest), "dataset split: train|validation|test")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "restrict to categories (repeatable)")
	cmd.Flags().StringSliceVar(&opts.difficulties, "difficulty", nil, "restrict to difficulties (repeatable)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "max problems to evaluate (0 = all)")
	cmd.Flags().StringVar(&opts.datasetDir, "dataset", "", "dataset directory (overrides config)")
	cmd.Flags().StringVar(&opts.outputDir, "output", "", "directory for the report file (skipped when empty)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "concurrent requests (overrides config)")
	cmd.Flags().BoolVar(&opts.noSubmit, "no-submit", false, "skip the leaderboard submission")

	return cmd
}

func runEvaluation(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}

	model := strings.TrimSpace(opts.model)
	if model == "" {
		return fmt.Errorf("run: missing --model")
	}

	categories, err := toCategories(opts.categories)
	if err != nil {
		return err
	}
	difficulties, err := toDifficulties(opts.difficulties)
	if err != nil {
		return err
	}

	if opts.concurrency > 0 {
		st.cfg.Runner.Concurrency = opts.concurrency
	}

	registry, err := llm.NewRegistryFromConfig(st.cfg)
	if err != nil {
		return err
	}

	runStore, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer runStore.Close()

	var lb *leaderboard.Store
	if !opts.noSubmit {
		lb, err = leaderboard.NewStore(st.cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer lb.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := app.Evaluate(ctx, st.cfg, registry, runStore, lb, app.EvalOptions{
		Model:        model,
		Provider:     opts.provider,
		Split:        dataset.Split(strings.TrimSpace(opts.split)),
		Categories:   categories,
		Difficulties: difficulties,
		Limit:        opts.limit,
		DatasetDir:   opts.datasetDir,
	})
	if err != nil {
		return err
	}

	printReport(cmd, out.Report)
	if dir := strings.TrimSpace(opts.outputDir); dir != "" {
		path, err := metrics.WriteReport(dir, out.Report)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", path)
	}
	if out.RunID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "run saved as %s\n", out.RunID)
	}
	if out.Entry != nil {
		state := "current"
		if !out.Entry.Current {
			state = "historical (smaller sample than current entry)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "leaderboard: version %d, %s\n", out.Entry.Version, state)
	}
	return nil
}

func printReport(cmd *cobra.Command, rep *metrics.Report) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "model %s on split %s\n", rep.Model, rep.Split)
	fmt.Fprintf(w, "accuracy %.4f (%d correct / %d incorrect / %d unscored, %d errors)\n",
		rep.Accuracy, rep.Correct, rep.Incorrect, rep.Unscored, rep.Errors)
	fmt.Fprintf(w, "latency p50 %dms p95 %dms p99 %dms\n", rep.Latency.P50Ms, rep.Latency.P95Ms, rep.Latency.P99Ms)

	cats := make([]string, 0, len(rep.ByCategory))
	for c := range rep.ByCategory {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tACCURACY\tSCORED\tUNSCORED")
	for _, c := range cats {
		st := rep.ByCategory[problem.Category(c)]
		acc := "n/a"
		if st.Accuracy != nil {
			acc = fmt.Sprintf("%.4f", *st.Accuracy)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", c, acc, st.Correct+st.Incorrect, st.Unscored)
	}
	_ = tw.Flush()
}

func toCategories(raw []string) ([]problem.Category, error) {
	out := make([]problem.Category, 0, len(raw))
	for _, r := range raw {
		c := problem.Category(strings.TrimSpace(r))
		if !c.Valid() {
			return nil, fmt.Errorf("run: unknown category %q", r)
		}
		out = append(out, c)
	}
	return out, nil
}

func toDifficulties(raw []string) ([]problem.Difficulty, error) {
	out := make([]problem.Difficulty, 0, len(raw))
	for _, r := range raw {
		d := problem.Difficulty(strings.TrimSpace(r))
		if !d.Valid() {
			return nil, fmt.Errorf("run: unknown difficulty %q", r)
		}
		out = append(out, d)
	}
	return out, nil
}
