package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mmusim/datarecording"
	"github.com/sarchlab/mmusim/mem/addrtrace"
	"github.com/sarchlab/mmusim/mem/trace"
	"github.com/sarchlab/mmusim/sim"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the traces of the trace directory.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		store, err := addrtrace.NewStore(c.TraceDir)
		if err != nil {
			return err
		}

		names, err := store.List()
		if err != nil {
			return err
		}

		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}

		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs db.sqlite3",
	Short: "List the runs recorded in a database.",
	Long: "`runs db.sqlite3` lists the recorded runs. " +
		"`runs db.sqlite3 --run 3 --limit 20` lists the first 20 steps of " +
		"run 3 if they were recorded with --record-steps.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		if runID, _ := cmd.Flags().GetString("run"); runID != "" {
			return listSteps(cmd, reader, runID)
		}

		runs, err := trace.ReadRuns(cmd.Context(), reader)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "run\tpolicy\ttlb\tframes\tstate\taddresses\thits\tmisses\tfaults")

		for _, e := range runs {
			fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%s\t%d\t%d\t%d\t%d\n",
				e.RunID, e.Policy, e.TLBEntries, e.NumFrames, e.State,
				e.Processed, e.TLBHits, e.TLBMisses, e.PageFaults)
		}

		return nil
	},
}

func listSteps(
	cmd *cobra.Command,
	reader *datarecording.Reader,
	runID string,
) error {
	offset, _ := cmd.Flags().GetInt("offset")
	limit, _ := cmd.Flags().GetInt("limit")

	if offset < 0 || limit < 0 {
		return fmt.Errorf("%w: offset and limit must not be negative",
			sim.ErrValidation)
	}

	steps, total, err := trace.ReadSteps(cmd.Context(), reader, runID,
		offset, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "seq\tpage\tframe\toutcome\tevicted")

	for _, s := range steps {
		evicted := "-"
		if s.Evicted {
			evicted = strconv.FormatUint(s.EvictedPage, 10)
		}

		fmt.Fprintf(out, "%d\t%d\t%d\t%s\t%s\n",
			s.Seq, s.Page, s.Frame, s.Outcome, evicted)
	}

	fmt.Fprintf(out, "%d of %d steps\n", len(steps), total)

	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runsCmd)

	f := runsCmd.Flags()
	f.String("run", "", "List the recorded steps of this run.")
	f.Int("offset", 0, "Steps to skip.")
	f.Int("limit", 0, "Steps to list, 0 for all.")
}
