package replacement

import (
	"github.com/hashicorp/golang-lru/simplelru"
)

// lruPolicy keeps a total recency order over the resident pages. The oldest
// entry of the list is the least recently used page.
type lruPolicy struct {
	order *simplelru.LRU
}

func newLRUPolicy(numFrames int) *lruPolicy {
	order, err := simplelru.NewLRU(numFrames, nil)
	if err != nil {
		panic(err)
	}

	return &lruPolicy{order: order}
}

func (p *lruPolicy) sealed() {}

func (p *lruPolicy) Kind() Kind {
	return LRU
}

func (p *lruPolicy) Admit(page, frame uint64) {
	evicted := p.order.Add(page, frame)
	if evicted {
		panic("lru policy tracks more pages than frames")
	}
}

func (p *lruPolicy) Touch(page, frame uint64) {
	_, found := p.order.Get(page)
	if !found {
		panic("touching a page that is not resident")
	}
}

func (p *lruPolicy) Victim() (page, frame uint64, ok bool) {
	key, value, ok := p.order.RemoveOldest()
	if !ok {
		return 0, 0, false
	}

	return key.(uint64), value.(uint64), true
}

func (p *lruPolicy) Forget(page, _ uint64) {
	p.order.Remove(page)
}

func (p *lruPolicy) Len() int {
	return p.order.Len()
}

// Order returns the tracked pages from least to most recently used.
func (p *lruPolicy) Order() []uint64 {
	keys := p.order.Keys()
	pages := make([]uint64, 0, len(keys))

	for _, k := range keys {
		pages = append(pages, k.(uint64))
	}

	return pages
}
