package tlb

import (
	"github.com/sarchlab/mmusim/mem/vm/tlb/internal"
)

// A Builder can build TLBs
type Builder struct {
	numEntries int
}

// MakeBuilder returns a Builder
func MakeBuilder() Builder {
	return Builder{
		numEntries: 16,
	}
}

// WithNumEntries sets the number of entries in the TLB.
func (b Builder) WithNumEntries(n int) Builder {
	b.numEntries = n
	return b
}

// Build creates a new TLB
func (b Builder) Build(name string) *TLB {
	if b.numEntries < 1 {
		panic("a TLB needs at least one entry")
	}

	t := &TLB{
		name:       name,
		numEntries: b.numEntries,
	}
	t.set = internal.NewSet(b.numEntries)

	return t
}
