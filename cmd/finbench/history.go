package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/finbench/internal/leaderboard"
)

type historyOptions struct {
	model string
	split string
}

func newHistoryCmd(st *cliState) *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Show all submissions for a model on a split",
		Args:    cobra.NoArgs,
		PreRunE: loadConfigPreRun(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "model identifier")
	cmd.Flags().StringVar(&opts.split, "split", "test", "dataset split")

	return cmd
}

func runHistory(cmd *cobra.Command, st *cliState, opts *historyOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}
	model := strings.TrimSpace(opts.model)
	if model == "" {
		return fmt.Errorf("history: missing --model")
	}

	lb, err := leaderboard.NewStore(st.cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer lb.Close()

	entries, err := lb.History(cmd.Context(), model, opts.split)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(w, "no submissions for %s on split %s\n", model, opts.split)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tCURRENT\tACCURACY\tUNSCORED\tLAT(ms)\tSAMPLES\tDATE")
	for _, e := range entries {
		current := ""
		if e.Current {
			current = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%d\t%d\t%d\t%s\n",
			e.Version, current, e.Accuracy, e.Unscored, e.MedianLatencyMs,
			e.SampleSize, e.SubmittedAt.Format(time.DateOnly))
	}
	_ = tw.Flush()
	return nil
}
