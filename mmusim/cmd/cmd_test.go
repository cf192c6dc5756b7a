package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarchlab/mmusim/sim"
)

func setenv(name, value string) {
	old, had := os.LookupEnv(name)
	Expect(os.Setenv(name, value)).To(Succeed())

	DeferCleanup(func() {
		if had {
			os.Setenv(name, old)
		} else {
			os.Unsetenv(name)
		}
	})
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}

	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)

	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(args ...string) (string, error) {
	resetFlags(rootCmd)

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return out.String(), err
}

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()

		for _, name := range []string{
			"MMUSIM_TRACE_DIR", "MMUSIM_PORT", "MMUSIM_MAX_LOG", "MMUSIM_RECORD_DB",
		} {
			setenv(name, "")
		}
	})

	load := func(args ...string) (config, error) {
		resetFlags(rootCmd)
		Expect(serveCmd.ParseFlags(args)).To(Succeed())

		return loadConfig(serveCmd)
	}

	It("should use the defaults", func() {
		c, err := load("--env-file", filepath.Join(dir, "missing.env"))

		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(defaultConfig()))
	})

	It("should read the environment", func() {
		setenv("MMUSIM_TRACE_DIR", "/traces")
		setenv("MMUSIM_PORT", "9000")
		setenv("MMUSIM_MAX_LOG", "5")

		c, err := load("--env-file", "")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.TraceDir).To(Equal("/traces"))
		Expect(c.Port).To(Equal(9000))
		Expect(c.MaxLog).To(Equal(5))
	})

	It("should read the env file", func() {
		envFile := filepath.Join(dir, "test.env")
		Expect(os.WriteFile(envFile,
			[]byte("MMUSIM_RECORD_DB=runs\nMMUSIM_PORT=8123\n"), 0o644)).
			To(Succeed())
		os.Unsetenv("MMUSIM_RECORD_DB")
		os.Unsetenv("MMUSIM_PORT")

		c, err := load("--env-file", envFile)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.RecordDB).To(Equal("runs"))
		Expect(c.Port).To(Equal(8123))
	})

	It("should let flags win over the environment", func() {
		setenv("MMUSIM_PORT", "9000")

		c, err := load("--env-file", "", "--port", "9100", "--trace-dir", "x")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Port).To(Equal(9100))
		Expect(c.TraceDir).To(Equal("x"))
	})

	It("should reject malformed numbers", func() {
		setenv("MMUSIM_MAX_LOG", "many")

		_, err := load("--env-file", "")

		Expect(err).To(MatchError(sim.ErrValidation))
	})
})

var _ = Describe("Commands", func() {
	var traceDir string

	BeforeEach(func() {
		traceDir = filepath.Join(GinkgoT().TempDir(), "tests")
	})

	It("should run inline addresses", func() {
		out, err := execute("run", "--env-file", "",
			"--tlb", "2", "--frames", "2", "--policy", "LRU",
			"--addresses", "1 2 1 3 1", "--victims", "3", "-v")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("TLB Hits:                   2"))
		Expect(out).To(ContainSubstring("Page Faults:                3"))
		Expect(out).To(ContainSubstring("PAGE FAULT page 3 → frame 1 (evicted page 2)"))
		Expect(out).To(ContainSubstring("page 2: 1"))
	})

	It("should fail on malformed traces", func() {
		out, err := execute("run", "--env-file", "", "--addresses", "1 x")

		Expect(err).To(MatchError(sim.ErrValidation))
		Expect(out).To(ContainSubstring("RUN FAILED after 1 addresses"))
	})

	It("should require exactly one source", func() {
		_, err := execute("run", "--env-file", "", "a.in", "--addresses", "1")
		Expect(err).To(MatchError(sim.ErrValidation))

		_, err = execute("run", "--env-file", "")
		Expect(err).To(MatchError(sim.ErrValidation))
	})

	It("should generate, list and run traces", func() {
		out, err := execute("generate", "--env-file", "", "--trace-dir", traceDir,
			"-a", "sequencial_com_saltos", "-n", "6", "--max-page", "2",
			"--jump-prob", "0", "--seed", "1", "seq.in")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Arquivo 'seq.in' gerado com sucesso! (seed 1)"))

		_, err = execute("generate", "--env-file", "", "--trace-dir", traceDir,
			"seq.in")
		Expect(err).To(MatchError(sim.ErrConflict))

		out, err = execute("list", "--env-file", "", "--trace-dir", traceDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("seq.in\n"))

		out, err = execute("run", "--env-file", "", "--trace-dir", traceDir,
			"--tlb", "1", "--frames", "3", "seq.in")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Page Faults:                3"))

		_, err = execute("run", "--env-file", "", "--trace-dir", traceDir,
			"missing.in")
		Expect(err).To(MatchError(sim.ErrNotFound))
	})

	It("should run files by path", func() {
		path := filepath.Join(GinkgoT().TempDir(), "my trace.txt")
		Expect(os.WriteFile(path, []byte("4\n4\n4\n"), 0o644)).To(Succeed())

		out, err := execute("run", "--env-file", "", "--input", path)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("TLB Hits:                   2"))
	})

	It("should record runs and list them", func() {
		db := filepath.Join(GinkgoT().TempDir(), "runs")

		_, err := execute("run", "--env-file", "", "--record-db", db,
			"--record-steps", "--addresses", "1 2 3")
		Expect(err).NotTo(HaveOccurred())

		out, err := execute("runs", db+".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("1\tLRU\t16\t64\tcompleted\t3\t0\t3\t3"))

		out, err = execute("runs", db+".sqlite3", "--run", "1",
			"--offset", "1", "--limit", "1")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("seq\tpage\tframe\toutcome\tevicted\n" +
			"2\t2\t1\tpage_fault\t-\n" +
			"1 of 3 steps\n"))

		_, err = execute("runs", db+".sqlite3", "--run", "1", "--limit", "-1")
		Expect(err).To(MatchError(sim.ErrValidation))
	})
})
