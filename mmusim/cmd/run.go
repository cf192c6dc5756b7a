package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mmusim/datarecording"
	"github.com/sarchlab/mmusim/mem/addrtrace"
	"github.com/sarchlab/mmusim/mem/trace"
	"github.com/sarchlab/mmusim/sim"
	"github.com/sarchlab/mmusim/sim/hooking"
	"github.com/sarchlab/mmusim/sim/id"
)

var runCmd = &cobra.Command{
	Use:   "run [trace]",
	Short: "Run a trace through the TLB and the page table.",
	Long: "`run name.in` runs a trace of the trace directory. " +
		"`run --input path` runs any file, `-` reads standard input. " +
		"`run --addresses \"1 2 3\"` runs the given pages.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		req, opener, err := runRequestFromFlags(cmd, args, c)
		if err != nil {
			return err
		}

		engine, closeHooks := buildRunEngine(cmd, c, opener)
		defer closeHooks()

		victims := hooking.NewTagCountTracer(evictedPage)
		engine.AcceptHook(victims)

		result, err := engine.Run(context.Background(), req)
		if result.RunID == "" {
			return err
		}

		out := cmd.OutOrStdout()
		for _, line := range result.Summary() {
			fmt.Fprintln(out, line)
		}

		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Fprintln(out)
			for _, line := range result.Logs {
				fmt.Fprintln(out, line)
			}
		}

		if n, _ := cmd.Flags().GetInt("victims"); n > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Most evicted pages:")
			for _, v := range victims.Top(n) {
				fmt.Fprintf(out, "  page %s: %d\n", v.Tag, v.Count)
			}
		}

		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.Int("tlb", 16, "Number of TLB entries.")
	f.Int("frames", 64, "Number of physical frames.")
	f.String("policy", "LRU", "Replacement policy, LRU or ClockSecondChance.")
	f.String("input", "", "Path of a trace file outside the trace directory.")
	f.String("addresses", "", "Pages to run, separated by spaces or newlines.")
	f.Int("max-log", sim.DefaultMaxLogEntries,
		"Number of step entries kept in the log, 0 for all (env MMUSIM_MAX_LOG).")
	f.String("record-db", "",
		"Record the run into this SQLite database (env MMUSIM_RECORD_DB).")
	f.Bool("record-steps", false, "Also record every step into the database.")
	f.Bool("trace-steps", false, "Log every step to standard error.")
	f.BoolP("verbose", "v", false, "Print the step log.")
	f.Int("victims", 0, "Print the n most evicted pages.")
}

func runRequestFromFlags(
	cmd *cobra.Command,
	args []string,
	c config,
) (sim.RunRequest, sim.TraceOpener, error) {
	flags := cmd.Flags()

	req := sim.RunRequest{}
	req.TLBEntries, _ = flags.GetInt("tlb")
	req.NumFrames, _ = flags.GetInt("frames")
	req.RepPolicy, _ = flags.GetString("policy")

	input, _ := flags.GetString("input")
	sources := 0

	if len(args) == 1 {
		sources++
		req.TestFile = &args[0]
	}

	if input != "" {
		sources++
		req.TestFile = &input
	}

	if flags.Changed("addresses") {
		sources++
		addresses, _ := flags.GetString("addresses")
		addresses = splitFields(addresses)
		req.Addresses = &addresses
	}

	if sources != 1 {
		return req, nil, fmt.Errorf("%w: give exactly one of a trace name, "+
			"--input or --addresses", sim.ErrValidation)
	}

	if input != "" {
		return req, fileOpener{stdin: cmd.InOrStdin()}, nil
	}

	store, err := addrtrace.NewStore(c.TraceDir)
	if err != nil {
		return req, nil, err
	}

	return req, store, nil
}

func buildRunEngine(
	cmd *cobra.Command,
	c config,
	opener sim.TraceOpener,
) (*sim.Engine, func()) {
	engine := sim.MakeBuilder().
		WithRunHolder(sim.NewRunHolder(id.NewIDGenerator())).
		WithTraceOpener(opener).
		WithLogger(logger).
		WithMaxLogEntries(c.MaxLog).
		Build("Engine")

	if traceSteps, _ := cmd.Flags().GetBool("trace-steps"); traceSteps {
		engine.AcceptHook(trace.NewTracer(logger))
	}

	if c.RecordDB == "" {
		return engine, func() {}
	}

	recordSteps, _ := cmd.Flags().GetBool("record-steps")
	recorder := datarecording.New(c.RecordDB)
	engine.AcceptHook(trace.NewDBTracer(recorder, recordSteps))

	return engine, func() {
		if err := recorder.Close(); err != nil {
			logger.Printf("closing %s: %v", c.RecordDB, err)
		}
	}
}

func evictedPage(ctx hooking.HookCtx) (string, bool) {
	if ctx.Pos != sim.HookPosStep {
		return "", false
	}

	step := ctx.Item.(sim.StepEvent)
	if !step.Evicted {
		return "", false
	}

	return strconv.FormatUint(step.EvictedPage, 10), true
}

// fileOpener opens traces by path. The path "-" is standard input.
type fileOpener struct {
	stdin io.Reader
}

func (o fileOpener) Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(o.stdin), nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", sim.ErrNotFound, path)
	}

	if err != nil {
		return nil, err
	}

	return f, nil
}

// splitFields puts every whitespace separated field on its own line.
func splitFields(s string) string {
	return strings.Join(strings.Fields(s), "\n")
}
