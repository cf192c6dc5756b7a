package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sarchlab/mmusim/sim"
)

// config holds the settings shared by the commands. Values come from the
// defaults, then the env file, then the environment, then the flags.
type config struct {
	TraceDir string
	Port     int
	MaxLog   int
	RecordDB string
}

func defaultConfig() config {
	return config{
		TraceDir: "tests",
		Port:     8000,
		MaxLog:   sim.DefaultMaxLogEntries,
	}
}

func loadConfig(cmd *cobra.Command) (config, error) {
	c := defaultConfig()

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := loadEnvFile(envFile); err != nil {
		return c, err
	}

	if err := c.applyEnv(); err != nil {
		return c, err
	}

	return c, c.applyFlags(cmd)
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

func (c *config) applyEnv() error {
	if v, ok := os.LookupEnv("MMUSIM_TRACE_DIR"); ok && v != "" {
		c.TraceDir = v
	}

	if v, ok := os.LookupEnv("MMUSIM_RECORD_DB"); ok {
		c.RecordDB = v
	}

	if err := envInt("MMUSIM_PORT", &c.Port); err != nil {
		return err
	}

	return envInt("MMUSIM_MAX_LOG", &c.MaxLog)
}

func envInt(name string, dst *int) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", sim.ErrValidation, name, v)
	}

	*dst = n

	return nil
}

func (c *config) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()

	if flags.Changed("trace-dir") {
		c.TraceDir, _ = flags.GetString("trace-dir")
	}

	if f := flags.Lookup("port"); f != nil && f.Changed {
		c.Port, _ = flags.GetInt("port")
	}

	if f := flags.Lookup("max-log"); f != nil && f.Changed {
		c.MaxLog, _ = flags.GetInt("max-log")
	}

	if f := flags.Lookup("record-db"); f != nil && f.Changed {
		c.RecordDB, _ = flags.GetString("record-db")
	}

	if c.MaxLog < 0 {
		return fmt.Errorf("%w: max log entries must not be negative",
			sim.ErrValidation)
	}

	return nil
}
