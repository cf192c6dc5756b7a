package addrtrace

import (
	"bytes"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmusim/sim"
)

func intPtr(v int) *int {
	return &v
}

func seedPtr(v uint64) *uint64 {
	return &v
}

func mustConfig(r Request) Config {
	c, err := r.Validate()
	Expect(err).NotTo(HaveOccurred())

	return c
}

var _ = Describe("Request", func() {
	var req Request

	BeforeEach(func() {
		req = Request{
			Algoritmo:    "working_set",
			NomeArquivo:  "ws_1.in",
			NumEnderecos: 10,
			MaxPagina:    99,
		}
	})

	It("should fill in defaults", func() {
		c := mustConfig(req)

		Expect(c.Algorithm).To(Equal(WorkingSet))
		Expect(c.MaxPage).To(Equal(uint64(99)))
		Expect(c.JumpProb).To(Equal(DefaultJumpProb))
		Expect(c.SetSize).To(Equal(DefaultSetSize))
		Expect(c.InSetProb).To(Equal(DefaultInSetProb))
		Expect(c.Phase).To(Equal(DefaultPhase))
	})

	It("should accept the largest working set", func() {
		req.MaxPagina = 1 << 40
		req.TamanhoSet = intPtr(MaxSetSize)

		Expect(mustConfig(req).SetSize).To(Equal(MaxSetSize))
	})

	It("should keep a given seed", func() {
		req.Seed = seedPtr(42)

		Expect(mustConfig(req).Seed).To(Equal(uint64(42)))
	})

	DescribeTable("should reject",
		func(modify func(r *Request)) {
			modify(&req)

			_, err := req.Validate()

			Expect(err).To(MatchError(sim.ErrValidation))
		},
		Entry("unknown algorithms", func(r *Request) { r.Algoritmo = "fifo" }),
		Entry("paths", func(r *Request) { r.NomeArquivo = "../etc/passwd.in" }),
		Entry("other extensions", func(r *Request) { r.NomeArquivo = "a.csv" }),
		Entry("empty names", func(r *Request) { r.NomeArquivo = "" }),
		Entry("zero addresses", func(r *Request) { r.NumEnderecos = 0 }),
		Entry("negative max page", func(r *Request) { r.MaxPagina = -1 }),
		Entry("probabilities above 100", func(r *Request) { r.ProbNoSet = intPtr(101) }),
		Entry("negative probabilities", func(r *Request) { r.ProbSalto = intPtr(-5) }),
		Entry("negative set sizes", func(r *Request) { r.TamanhoSet = intPtr(-1) }),
		Entry("set sizes above the maximum", func(r *Request) {
			r.MaxPagina = 1 << 40
			r.TamanhoSet = intPtr(MaxSetSize + 1)
		}),
		Entry("zero phases", func(r *Request) { r.Fase = intPtr(0) }),
	)
})

var _ = Describe("Generators", func() {
	DescribeTable("should honor length, range and determinism",
		func(algorithm Algorithm) {
			c := mustConfig(Request{
				Algoritmo:    string(algorithm),
				NomeArquivo:  "t.in",
				NumEnderecos: 1000,
				MaxPagina:    37,
				Seed:         seedPtr(7),
			})

			first := Generate(c)
			second := Generate(c)

			Expect(first).To(HaveLen(1000))
			Expect(first).To(Equal(second))

			for _, p := range first {
				Expect(p).To(BeNumerically("<=", 37))
			}

			c.Seed = 8
			Expect(Generate(c)).NotTo(Equal(first))
		},
		Entry("aleatorio", Random),
		Entry("sequencial_com_saltos", SequentialWithJumps),
		Entry("working_set", WorkingSet),
	)

	It("should only produce page 0 when max page is 0", func() {
		for _, a := range []Algorithm{Random, SequentialWithJumps, WorkingSet} {
			c := Config{
				Algorithm:    a,
				NumAddresses: 20,
				JumpProb:     50,
				SetSize:      3,
				InSetProb:    10,
				Phase:        4,
				Seed:         1,
			}

			Expect(Generate(c)).To(Equal(make([]uint64, 20)))
		}
	})

	Context("sequencial_com_saltos", func() {
		It("should walk and wrap without jumps", func() {
			c := Config{
				Algorithm:    SequentialWithJumps,
				NumAddresses: 7,
				MaxPage:      3,
				JumpProb:     0,
			}

			Expect(Generate(c)).To(Equal([]uint64{0, 1, 2, 3, 0, 1, 2}))
		})

		It("should start at 0 even when always jumping", func() {
			c := Config{
				Algorithm:    SequentialWithJumps,
				NumAddresses: 5,
				MaxPage:      1000,
				JumpProb:     100,
				Seed:         3,
			}

			Expect(Generate(c)[0]).To(Equal(uint64(0)))
		})
	})

	Context("working_set", func() {
		var c Config

		BeforeEach(func() {
			c = Config{
				Algorithm:    WorkingSet,
				NumAddresses: 500,
				MaxPage:      999,
				SetSize:      5,
				InSetProb:    100,
				Phase:        100,
				Seed:         11,
			}
		})

		It("should stay inside the set within a phase", func() {
			pages := Generate(c)

			for start := 0; start < len(pages); start += c.Phase {
				distinct := map[uint64]bool{}
				for _, p := range pages[start : start+c.Phase] {
					distinct[p] = true
				}

				Expect(len(distinct)).To(BeNumerically("<=", 5))
			}
		})

		It("should stay outside the set when the set is never chosen", func() {
			c.InSetProb = 0
			c.MaxPage = 9
			c.SetSize = 8
			c.Phase = 1000

			pages := Generate(c)

			distinct := map[uint64]bool{}
			for _, p := range pages {
				distinct[p] = true
			}

			Expect(distinct).To(HaveLen(2))
		})

		It("should fall back to the set when it covers every page", func() {
			c.InSetProb = 0
			c.MaxPage = 3
			c.SetSize = 10

			for _, p := range Generate(c) {
				Expect(p).To(BeNumerically("<=", 3))
			}
		})

		It("should act as aleatorio with an empty set", func() {
			c.SetSize = 0

			r := c
			r.Algorithm = Random

			Expect(Generate(c)).To(Equal(Generate(r)))
		})
	})

	It("should sample distinct sorted values", func() {
		rng := rand.New(rand.NewPCG(1, 2))

		set := sampleDistinct(rng, 10, 10)
		Expect(set).To(Equal([]uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))

		set = sampleDistinct(rng, 1_000_000, 50)
		Expect(set).To(HaveLen(50))
		for i := 1; i < len(set); i++ {
			Expect(set[i]).To(BeNumerically(">", set[i-1]))
		}
	})

	It("should enumerate the values outside a set", func() {
		set := []uint64{2, 5}

		var outside []uint64
		for i := range uint64(5) {
			outside = append(outside, nthOutside(set, i))
		}

		Expect(outside).To(Equal([]uint64{0, 1, 3, 4, 6}))
	})

	It("should write one page per line", func() {
		c := Config{
			Algorithm:    SequentialWithJumps,
			NumAddresses: 3,
			MaxPage:      10,
		}
		buf := &bytes.Buffer{}

		Expect(WriteTrace(buf, c)).To(Succeed())
		Expect(buf.String()).To(Equal("0\n1\n2\n"))
	})
})
