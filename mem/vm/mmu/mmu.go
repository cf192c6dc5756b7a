// Package mmu walks a virtual page through the TLB and the page table.
package mmu

import (
	"fmt"

	"github.com/sarchlab/mmusim/mem/vm"
	"github.com/sarchlab/mmusim/mem/vm/tlb"
)

// Outcome tells which level resolved a translation.
type Outcome int

// The possible outcomes of a translation.
const (
	TLBHit Outcome = iota
	PageHit
	PageFault
)

func (o Outcome) String() string {
	switch o {
	case TLBHit:
		return "tlb_hit"
	case PageHit:
		return "page_hit"
	case PageFault:
		return "page_fault"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// A Translation is the result of translating one page.
type Translation struct {
	Page    uint64
	Frame   uint64
	Outcome Outcome

	// Evicted is set when the fault path took the frame of another page.
	Evicted     bool
	EvictedPage uint64
}

// MMU is the translation path: a TLB in front of a page table.
type MMU struct {
	name      string
	tlb       *tlb.TLB
	pageTable *vm.PageTable
}

// Name returns the name of the MMU.
func (m *MMU) Name() string {
	return m.name
}

// TLB returns the TLB of the MMU.
func (m *MMU) TLB() *tlb.TLB {
	return m.tlb
}

// PageTable returns the page table of the MMU.
func (m *MMU) PageTable() *vm.PageTable {
	return m.pageTable
}

// Translate resolves one virtual page reference.
func (m *MMU) Translate(page uint64) (Translation, error) {
	t := Translation{Page: page}

	if frame, hit := m.tlb.Lookup(page); hit {
		ptFrame, present := m.pageTable.Lookup(page)
		if !present || ptFrame != frame {
			return t, fmt.Errorf("%w: TLB maps page %d to frame %d, "+
				"page table does not", vm.ErrInvariant, page, frame)
		}

		m.pageTable.Touch(page)

		t.Frame = frame
		t.Outcome = TLBHit

		return t, nil
	}

	if frame, present := m.pageTable.Lookup(page); present {
		m.pageTable.Touch(page)
		m.tlb.Insert(page, frame)

		t.Frame = frame
		t.Outcome = PageHit

		return t, m.checkOccupancy()
	}

	placement, err := m.pageTable.Load(page)
	if err != nil {
		return t, err
	}

	if placement.Evicted {
		m.tlb.Invalidate(placement.EvictedPage)
	}

	m.tlb.Insert(page, placement.Frame)

	t.Frame = placement.Frame
	t.Outcome = PageFault
	t.Evicted = placement.Evicted
	t.EvictedPage = placement.EvictedPage

	return t, m.checkOccupancy()
}

func (m *MMU) checkOccupancy() error {
	if m.tlb.Len() > m.tlb.Capacity() {
		return fmt.Errorf("%w: TLB holds %d entries, capacity is %d",
			vm.ErrInvariant, m.tlb.Len(), m.tlb.Capacity())
	}

	if m.pageTable.Resident() > m.pageTable.NumFrames() {
		return fmt.Errorf("%w: %d resident pages, %d frames",
			vm.ErrInvariant, m.pageTable.Resident(), m.pageTable.NumFrames())
	}

	return nil
}

// Verify checks the page table bijection and that every TLB entry agrees
// with the page table.
func (m *MMU) Verify() error {
	if err := m.pageTable.Verify(); err != nil {
		return err
	}

	for _, e := range m.tlb.Entries() {
		frame, present := m.pageTable.Lookup(e.Page)
		if !present || frame != e.Frame {
			return fmt.Errorf("%w: stale TLB entry page %d -> frame %d",
				vm.ErrInvariant, e.Page, e.Frame)
		}
	}

	return nil
}
