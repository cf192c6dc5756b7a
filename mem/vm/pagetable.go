// Package vm models the resident set of a virtual memory: which virtual pages
// currently occupy which physical frames.
package vm

import (
	"errors"
	"fmt"

	"github.com/sarchlab/mmusim/mem/vm/replacement"
)

// ErrInvariant is returned when the page table or the structures around it
// are found in an impossible state.
var ErrInvariant = errors.New("invariant violation")

// A Page is an entry in the page table, maintaining the information about how
// to translate a virtual page to a physical frame.
type Page struct {
	VPN   uint64
	Frame uint64
	Valid bool
}

// A Placement describes where the fault path put a page.
type Placement struct {
	Frame       uint64
	Evicted     bool
	EvictedPage uint64
}

// A PageTable holds the resident pages and the reverse frame index. It owns
// the replacement policy that picks victims once every frame is in use.
type PageTable struct {
	numFrames int
	policy    replacement.Policy

	entries  map[uint64]*Page
	frames   []*Page
	nextFree int
}

// NewPageTable creates a new PageTable with numFrames physical frames.
func NewPageTable(numFrames int, policy replacement.Policy) *PageTable {
	if numFrames < 1 {
		panic("number of frames must be at least 1")
	}

	return &PageTable{
		numFrames: numFrames,
		policy:    policy,
		entries:   make(map[uint64]*Page),
		frames:    make([]*Page, numFrames),
	}
}

// NumFrames returns the number of physical frames.
func (pt *PageTable) NumFrames() int {
	return pt.numFrames
}

// Policy returns the replacement policy.
func (pt *PageTable) Policy() replacement.Policy {
	return pt.policy
}

// Resident returns the number of pages that currently own a frame.
func (pt *PageTable) Resident() int {
	return len(pt.entries)
}

// Lookup returns the frame of a resident page. It does not count as a
// reference.
func (pt *PageTable) Lookup(vpn uint64) (frame uint64, present bool) {
	page, found := pt.entries[vpn]
	if !found {
		return 0, false
	}

	return page.Frame, true
}

// Touch registers a reference to a resident page.
func (pt *PageTable) Touch(vpn uint64) {
	page, found := pt.entries[vpn]
	if !found {
		panic(fmt.Sprintf("page %d is not resident", vpn))
	}

	pt.policy.Touch(vpn, page.Frame)
}

// Load brings a non-resident page into a frame. Free frames are used first;
// afterwards the policy selects a victim whose frame is reassigned.
func (pt *PageTable) Load(vpn uint64) (Placement, error) {
	if _, found := pt.entries[vpn]; found {
		return Placement{}, fmt.Errorf("%w: page %d is already resident",
			ErrInvariant, vpn)
	}

	if pt.nextFree < pt.numFrames {
		frame := uint64(pt.nextFree)
		pt.nextFree++

		if err := pt.bind(vpn, frame); err != nil {
			return Placement{}, err
		}

		return Placement{Frame: frame}, nil
	}

	victim, frame, ok := pt.policy.Victim()
	if !ok {
		return Placement{}, fmt.Errorf("%w: %s policy found no victim among %d frames",
			ErrInvariant, pt.policy.Kind(), pt.numFrames)
	}

	if err := pt.unbind(victim, frame); err != nil {
		return Placement{}, err
	}

	if err := pt.bind(vpn, frame); err != nil {
		return Placement{}, err
	}

	return Placement{Frame: frame, Evicted: true, EvictedPage: victim}, nil
}

func (pt *PageTable) bind(vpn, frame uint64) error {
	if pt.frames[frame] != nil {
		return fmt.Errorf("%w: frame %d already holds page %d",
			ErrInvariant, frame, pt.frames[frame].VPN)
	}

	page := &Page{VPN: vpn, Frame: frame, Valid: true}
	pt.entries[vpn] = page
	pt.frames[frame] = page
	pt.policy.Admit(vpn, frame)

	return nil
}

func (pt *PageTable) unbind(vpn, frame uint64) error {
	page, found := pt.entries[vpn]
	if !found || page.Frame != frame || pt.frames[frame] != page {
		return fmt.Errorf("%w: victim page %d is not bound to frame %d",
			ErrInvariant, vpn, frame)
	}

	delete(pt.entries, vpn)
	pt.frames[frame] = nil

	return nil
}

// Frames returns, for each frame, the page it holds. Free frames are reported
// as invalid pages.
func (pt *PageTable) Frames() []Page {
	view := make([]Page, pt.numFrames)

	for i, page := range pt.frames {
		if page == nil {
			view[i] = Page{Frame: uint64(i)}
			continue
		}

		view[i] = *page
	}

	return view
}

// Verify checks that the page entries and the frame index are a bijection and
// that the policy tracks exactly the resident pages.
func (pt *PageTable) Verify() error {
	if len(pt.entries) > pt.numFrames {
		return fmt.Errorf("%w: %d resident pages exceed %d frames",
			ErrInvariant, len(pt.entries), pt.numFrames)
	}

	used := 0

	for frame, page := range pt.frames {
		if page == nil {
			continue
		}

		used++

		entry, found := pt.entries[page.VPN]
		if !found || entry != page || page.Frame != uint64(frame) {
			return fmt.Errorf("%w: frame %d and page %d disagree",
				ErrInvariant, frame, page.VPN)
		}
	}

	if used != len(pt.entries) {
		return fmt.Errorf("%w: %d used frames for %d resident pages",
			ErrInvariant, used, len(pt.entries))
	}

	if pt.policy.Len() != len(pt.entries) {
		return fmt.Errorf("%w: policy tracks %d pages, %d are resident",
			ErrInvariant, pt.policy.Len(), len(pt.entries))
	}

	return nil
}
