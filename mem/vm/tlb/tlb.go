// Package tlb provides a fully associative translation lookaside buffer with
// least-recently-used replacement.
package tlb

import (
	"github.com/sarchlab/mmusim/mem/vm/tlb/internal"
)

// A Mapping is a page to frame translation cached by the TLB.
type Mapping struct {
	Page  uint64
	Frame uint64
}

// TLB is a cache that maintains some page information.
type TLB struct {
	name       string
	numEntries int

	set internal.Set
}

// Name returns the name of the TLB.
func (t *TLB) Name() string {
	return t.name
}

// Capacity returns the maximum number of entries the TLB holds.
func (t *TLB) Capacity() int {
	return t.numEntries
}

// Len returns the number of valid entries.
func (t *TLB) Len() int {
	return t.set.NumValid()
}

// Reset sets all the entries in the TLB to be invalid.
func (t *TLB) Reset() {
	t.set = internal.NewSet(t.numEntries)
}

// Lookup returns the frame cached for the page. A hit makes the entry the
// most recently used one.
func (t *TLB) Lookup(page uint64) (frame uint64, hit bool) {
	wayID, block, found := t.set.Lookup(page)
	if !found {
		return 0, false
	}

	t.set.Visit(wayID)

	return block.Frame, true
}

// Insert caches a mapping. If the TLB is full, the least recently used entry
// is replaced and returned.
func (t *TLB) Insert(page, frame uint64) (evicted Mapping, didEvict bool) {
	wayID, _, found := t.set.Lookup(page)
	if found {
		t.set.Update(wayID, page, frame)
		t.set.Visit(wayID)

		return Mapping{}, false
	}

	victim, ok := t.set.Evict()
	if !ok {
		panic("failed to evict")
	}

	if victim.Valid {
		evicted = Mapping{Page: victim.Page, Frame: victim.Frame}
		didEvict = true
	}

	t.set.Update(victim.WayID, page, frame)
	t.set.Visit(victim.WayID)

	return evicted, didEvict
}

// Invalidate removes the entry of a page. It returns false if the page is not
// cached.
func (t *TLB) Invalidate(page uint64) bool {
	wayID, _, found := t.set.Lookup(page)
	if !found {
		return false
	}

	t.set.Invalidate(wayID)

	return true
}

// Entries returns the cached mappings from the least to the most recently
// used.
func (t *TLB) Entries() []Mapping {
	blocks := t.set.Blocks()
	entries := make([]Mapping, 0, len(blocks))

	for _, b := range blocks {
		entries = append(entries, Mapping{Page: b.Page, Frame: b.Frame})
	}

	return entries
}
