// Package internal provides the definition required for defining TLB.
package internal

import (
	"github.com/google/btree"
)

// A Block is one way of a set. It holds the frame that a virtual page maps to.
type Block struct {
	WayID int
	Page  uint64
	Frame uint64
	Valid bool

	lastVisit uint64
}

// A Set holds a certain number of blocks. Lookup, Update, Invalidate, Evict
// and Visit are the operations which we can perform on a set.
type Set interface {
	Lookup(page uint64) (wayID int, block Block, found bool)
	Update(wayID int, page, frame uint64)
	Invalidate(wayID int)
	Evict() (block Block, ok bool)
	Visit(wayID int)
	NumValid() int
	Blocks() []Block
}

// NewSet creates a new TLB set.
func NewSet(numWays int) Set {
	if numWays < 1 {
		panic("a set needs at least one way")
	}

	s := &setImpl{}
	s.blocks = make([]*block, numWays)
	s.visitTree = btree.NewG(2, blockLess)
	s.pageWayIDMap = make(map[uint64]int)

	for i := range s.blocks {
		b := &block{}
		b.WayID = i
		s.blocks[i] = b
		s.Visit(i)
	}

	return s
}

type block struct {
	Block
}

// blockLess orders invalid blocks before valid ones, then by visit time. The
// minimum of the tree is always the block to evict next.
func blockLess(a, b *block) bool {
	if a.Valid != b.Valid {
		return !a.Valid
	}

	if a.lastVisit != b.lastVisit {
		return a.lastVisit < b.lastVisit
	}

	return a.WayID < b.WayID
}

type setImpl struct {
	blocks       []*block
	pageWayIDMap map[uint64]int
	visitTree    *btree.BTreeG[*block]
	visitCount   uint64
	numValid     int
}

func (s *setImpl) Lookup(page uint64) (wayID int, b Block, found bool) {
	wayID, ok := s.pageWayIDMap[page]
	if !ok {
		return 0, Block{}, false
	}

	return wayID, s.blocks[wayID].Block, true
}

// Update sets the mapping held by a way. The old mapping of the way, if any,
// is dropped.
func (s *setImpl) Update(wayID int, page, frame uint64) {
	b := s.blocks[wayID]

	otherWayID, taken := s.pageWayIDMap[page]
	if taken && otherWayID != wayID {
		panic("page is already cached in another way")
	}

	inTree := s.removeFromTree(b)

	if b.Valid {
		delete(s.pageWayIDMap, b.Page)
	} else {
		s.numValid++
	}

	b.Page = page
	b.Frame = frame
	b.Valid = true
	s.pageWayIDMap[page] = wayID

	if inTree {
		s.visitTree.ReplaceOrInsert(b)
	}
}

// Invalidate drops the mapping held by a way. The way becomes the first
// candidate for eviction.
func (s *setImpl) Invalidate(wayID int) {
	b := s.blocks[wayID]
	if !b.Valid {
		return
	}

	inTree := s.removeFromTree(b)

	delete(s.pageWayIDMap, b.Page)
	b.Valid = false
	b.Page = 0
	b.Frame = 0
	s.numValid--

	if inTree {
		s.visitTree.ReplaceOrInsert(b)
	}
}

// Evict removes the least recently used way from the visit order and returns
// it. The caller must Update and Visit the way afterwards.
func (s *setImpl) Evict() (Block, bool) {
	b, ok := s.visitTree.DeleteMin()
	if !ok {
		return Block{}, false
	}

	return b.Block, true
}

// Visit marks a way as the most recently used.
func (s *setImpl) Visit(wayID int) {
	b := s.blocks[wayID]

	s.removeFromTree(b)

	s.visitCount++
	b.lastVisit = s.visitCount
	s.visitTree.ReplaceOrInsert(b)
}

func (s *setImpl) NumValid() int {
	return s.numValid
}

// Blocks returns the valid blocks from the least to the most recently used.
func (s *setImpl) Blocks() []Block {
	blocks := make([]Block, 0, s.numValid)

	s.visitTree.Ascend(func(b *block) bool {
		if b.Valid {
			blocks = append(blocks, b.Block)
		}

		return true
	})

	return blocks
}

func (s *setImpl) removeFromTree(b *block) bool {
	_, found := s.visitTree.Delete(b)
	return found
}
