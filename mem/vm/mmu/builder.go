package mmu

import (
	"github.com/sarchlab/mmusim/mem/vm"
	"github.com/sarchlab/mmusim/mem/vm/replacement"
	"github.com/sarchlab/mmusim/mem/vm/tlb"
)

// A Builder can build MMUs.
type Builder struct {
	numTLBEntries int
	numFrames     int
	policy        replacement.Kind
}

// MakeBuilder creates a new builder
func MakeBuilder() Builder {
	return Builder{
		numTLBEntries: 16,
		numFrames:     64,
		policy:        replacement.LRU,
	}
}

// WithNumTLBEntries sets the capacity of the TLB.
func (b Builder) WithNumTLBEntries(n int) Builder {
	b.numTLBEntries = n
	return b
}

// WithNumFrames sets the number of physical frames.
func (b Builder) WithNumFrames(n int) Builder {
	b.numFrames = n
	return b
}

// WithPolicy sets the page replacement policy.
func (b Builder) WithPolicy(kind replacement.Kind) Builder {
	b.policy = kind
	return b
}

// Build returns a newly created MMU.
func (b Builder) Build(name string) *MMU {
	m := &MMU{name: name}

	m.tlb = tlb.MakeBuilder().
		WithNumEntries(b.numTLBEntries).
		Build(name + ".TLB")
	m.pageTable = vm.NewPageTable(
		b.numFrames,
		replacement.New(b.policy, b.numFrames),
	)

	return m
}
