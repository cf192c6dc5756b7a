package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/mmusim/datarecording"
	"github.com/sarchlab/mmusim/mem/addrtrace"
	"github.com/sarchlab/mmusim/mem/trace"
	"github.com/sarchlab/mmusim/monitoring"
	"github.com/sarchlab/mmusim/sim"
	"github.com/sarchlab/mmusim/sim/id"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulator API over HTTP.",
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

		engine := sim.MakeBuilder().
			WithRunHolder(sim.NewRunHolder(id.NewIDGenerator())).
			WithTraceOpener(store).
			WithLogger(logger).
			WithMaxLogEntries(c.MaxLog).
			Build("Engine")

		if c.RecordDB != "" {
			recorder := datarecording.New(c.RecordDB)
			defer recorder.Close()

			recordSteps, _ := cmd.Flags().GetBool("record-steps")
			engine.AcceptHook(trace.NewDBTracer(recorder, recordSteps))
		}

		m := monitoring.NewMonitor().
			WithPortNumber(c.Port).
			WithLogger(logger)
		m.RegisterEngine(engine)
		m.RegisterTraceStore(store)

		addr, err := m.StartServer()
		if err != nil {
			return err
		}

		if open, _ := cmd.Flags().GetBool("open"); open {
			if err := browser.OpenURL(addr + "/api/list-tests"); err != nil {
				logger.Printf("opening browser: %v", err)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		<-ctx.Done()
		logger.Printf("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			5*time.Second)
		defer cancel()

		return m.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.Int("port", 8000, "Port to listen on (env MMUSIM_PORT).")
	f.Int("max-log", sim.DefaultMaxLogEntries,
		"Number of step entries kept per run, 0 for all (env MMUSIM_MAX_LOG).")
	f.String("record-db", "",
		"Record runs into this SQLite database (env MMUSIM_RECORD_DB).")
	f.Bool("record-steps", false, "Also record every step into the database.")
	f.Bool("open", false, "Open the API in a browser.")
}
