package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/finbench/internal/leaderboard"
)

type leaderboardOptions struct {
	split  string
	top    int
	format string
}

func newLeaderboardCmd(st *cliState) *cobra.Command {
	var opts leaderboardOptions

	cmd := &cobra.Command{
		Use:     "leaderboard",
		Short:   "Show the current ranking for a split",
		Args:    cobra.NoArgs,
		PreRunE: loadConfigPreRun(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.split, "split", "test", "dataset split to rank")
	cmd.Flags().IntVar(&opts.top, "top", 20, "number of entries to show")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table or json")

	return cmd
}

func runLeaderboard(cmd *cobra.Command, st *cliState, opts *leaderboardOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("leaderboard: missing config (internal error)")
	}

	lb, err := leaderboard.NewStore(st.cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer lb.Close()

	entries, err := lb.Ranked(cmd.Context(), opts.split, opts.top)
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "json":
		return printEntriesJSON(cmd, entries)
	case "table", "":
		printEntriesTable(cmd, opts.split, entries)
		return nil
	default:
		return fmt.Errorf("leaderboard: unknown format %q (want table or json)", opts.format)
	}
}

func printEntriesJSON(cmd *cobra.Command, entries []leaderboard.Entry) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("leaderboard: encode entries: %w", err)
	}
	return nil
}

func printEntriesTable(cmd *cobra.Command, split string, entries []leaderboard.Entry) {
	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(w, "no entries for split %s\n", split)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tMODEL\tACCURACY\tUNSCORED\tLAT(ms)\tSAMPLES\tVERSION\tDATE")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%d\t%d\t%d\t%d\t%s\n",
			i+1, e.Model, e.Accuracy, e.Unscored, e.MedianLatencyMs,
			e.SampleSize, e.Version, e.SubmittedAt.Format(time.DateOnly))
	}
	_ = tw.Flush()
}
