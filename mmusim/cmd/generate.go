package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mmusim/mem/addrtrace"
)

var generateCmd = &cobra.Command{
	Use:   "generate name.in",
	Short: "Generate a synthetic trace into the trace directory.",
	Long: "`generate --algorithm working_set --count 1000 --max-page 99 ws.in` " +
		"writes 1000 pages drawn by the working set algorithm. " +
		"Algorithms: aleatorio, sequencial_com_saltos, working_set.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		gc, err := generateRequestFromFlags(cmd, args[0]).Validate()
		if err != nil {
			return err
		}

		store, err := addrtrace.NewStore(c.TraceDir)
		if err != nil {
			return err
		}

		if err := store.Generate(gc); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"Arquivo '%s' gerado com sucesso! (seed %d)\n", gc.FileName, gc.Seed)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringP("algorithm", "a", string(addrtrace.Random), "Generation algorithm.")
	f.IntP("count", "n", 1000, "Number of addresses.")
	f.Int64("max-page", 99, "Largest page number.")
	f.Int("jump-prob", addrtrace.DefaultJumpProb,
		"Percent probability of a jump, sequencial_com_saltos only.")
	f.Int("set-size", addrtrace.DefaultSetSize,
		"Working set size, working_set only, at most 65536.")
	f.Int("in-set-prob", addrtrace.DefaultInSetProb,
		"Percent probability of drawing from the working set.")
	f.Int("phase", addrtrace.DefaultPhase,
		"Steps between working set changes.")
	f.Uint64("seed", 0, "Seed of the generator. Time based if not given.")
}

func generateRequestFromFlags(cmd *cobra.Command, name string) addrtrace.Request {
	flags := cmd.Flags()

	req := addrtrace.Request{NomeArquivo: name}
	req.Algoritmo, _ = flags.GetString("algorithm")
	req.NumEnderecos, _ = flags.GetInt("count")
	req.MaxPagina, _ = flags.GetInt64("max-page")

	optional := []struct {
		flag string
		dst  **int
	}{
		{"jump-prob", &req.ProbSalto},
		{"set-size", &req.TamanhoSet},
		{"in-set-prob", &req.ProbNoSet},
		{"phase", &req.Fase},
	}

	for _, o := range optional {
		if flags.Changed(o.flag) {
			v, _ := flags.GetInt(o.flag)
			*o.dst = &v
		}
	}

	if flags.Changed("seed") {
		seed, _ := flags.GetUint64("seed")
		req.Seed = &seed
	}

	return req
}
