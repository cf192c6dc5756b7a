package addrtrace

import (
	"bufio"
	"io"
	"math/rand/v2"
	"slices"
	"strconv"
)

// A Generator produces one page number per call.
type Generator interface {
	Next() uint64
}

// NewGenerator creates the generator selected by c. Two generators created
// from equal configs produce the same sequence.
func NewGenerator(c Config) Generator {
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))
	numPages := c.MaxPage + 1

	switch c.Algorithm {
	case Random:
		return &randomGenerator{rng: rng, numPages: numPages}
	case SequentialWithJumps:
		return &sequentialGenerator{
			rng:      rng,
			numPages: numPages,
			jumpProb: c.JumpProb,
		}
	case WorkingSet:
		if c.SetSize == 0 {
			return &randomGenerator{rng: rng, numPages: numPages}
		}

		return newWorkingSetGenerator(rng, numPages, c)
	default:
		panic("unknown algorithm " + string(c.Algorithm))
	}
}

// Generate returns the whole trace described by c.
func Generate(c Config) []uint64 {
	g := NewGenerator(c)
	pages := make([]uint64, c.NumAddresses)

	for i := range pages {
		pages[i] = g.Next()
	}

	return pages
}

// WriteTrace writes the trace described by c to w, one page per line.
func WriteTrace(w io.Writer, c Config) error {
	g := NewGenerator(c)
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 24)

	for range c.NumAddresses {
		buf = strconv.AppendUint(buf[:0], g.Next(), 10)
		buf = append(buf, '\n')

		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	return bw.Flush()
}

type randomGenerator struct {
	rng      *rand.Rand
	numPages uint64
}

func (g *randomGenerator) Next() uint64 {
	return g.rng.Uint64N(g.numPages)
}

// sequentialGenerator walks pages in order and, with jumpProb percent
// probability per step, jumps to a uniformly drawn page. The first page is
// always 0.
type sequentialGenerator struct {
	rng      *rand.Rand
	numPages uint64
	jumpProb int
	cursor   uint64
	started  bool
}

func (g *sequentialGenerator) Next() uint64 {
	if !g.started {
		g.started = true
		return g.cursor
	}

	if g.rng.IntN(100) < g.jumpProb {
		g.cursor = g.rng.Uint64N(g.numPages)
	} else {
		g.cursor = (g.cursor + 1) % g.numPages
	}

	return g.cursor
}

// workingSetGenerator draws from a subset of pages with inSetProb percent
// probability and from the other pages otherwise. The subset is redrawn
// every phase steps.
type workingSetGenerator struct {
	rng       *rand.Rand
	numPages  uint64
	setSize   uint64
	inSetProb int
	phase     int

	step int
	set  []uint64
}

func newWorkingSetGenerator(
	rng *rand.Rand,
	numPages uint64,
	c Config,
) *workingSetGenerator {
	return &workingSetGenerator{
		rng:       rng,
		numPages:  numPages,
		setSize:   min(uint64(c.SetSize), numPages),
		inSetProb: c.InSetProb,
		phase:     c.Phase,
	}
}

func (g *workingSetGenerator) Next() uint64 {
	if g.step%g.phase == 0 {
		g.set = sampleDistinct(g.rng, g.numPages, g.setSize)
	}

	g.step++

	outside := g.numPages - g.setSize
	if g.rng.IntN(100) < g.inSetProb || outside == 0 {
		return g.set[g.rng.IntN(len(g.set))]
	}

	return nthOutside(g.set, g.rng.Uint64N(outside))
}

// sampleDistinct picks k distinct values from [0, n) with Floyd's algorithm
// and returns them sorted.
func sampleDistinct(rng *rand.Rand, n, k uint64) []uint64 {
	chosen := make(map[uint64]bool, k)
	set := make([]uint64, 0, k)

	for j := n - k; j < n; j++ {
		t := rng.Uint64N(j + 1)
		if chosen[t] {
			t = j
		}

		chosen[t] = true
		set = append(set, t)
	}

	slices.Sort(set)

	return set
}

// nthOutside returns the idx-th smallest value that is not in the sorted set.
func nthOutside(set []uint64, idx uint64) uint64 {
	v := idx
	for _, s := range set {
		if s > v {
			break
		}

		v++
	}

	return v
}
