package hooking

import (
	"sort"
	"sync"
)

// A Tagger extracts a tag from a hook context. Contexts for which ok is false
// are ignored.
type Tagger func(ctx HookCtx) (tag string, ok bool)

// TagCountTracer counts how many times each tag is seen.
type TagCountTracer struct {
	tagger Tagger
	lock   sync.Mutex

	tagNames []string
	tagCount map[string]uint64
}

// NewTagCountTracer creates a new TagCountTracer
func NewTagCountTracer(tagger Tagger) *TagCountTracer {
	t := &TagCountTracer{
		tagger:   tagger,
		tagCount: make(map[string]uint64),
	}

	return t
}

// Func counts the tag of the context, if it has one.
func (t *TagCountTracer) Func(ctx HookCtx) {
	tag, ok := t.tagger(ctx)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, seen := t.tagCount[tag]; !seen {
		t.tagNames = append(t.tagNames, tag)
	}

	t.tagCount[tag]++
}

// GetTagNames returns all the tag names collected, in order of first
// appearance.
func (t *TagCountTracer) GetTagNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	names := make([]string, len(t.tagNames))
	copy(names, t.tagNames)

	return names
}

// GetTagCount returns the number of times a tag has been seen.
func (t *TagCountTracer) GetTagCount(tag string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.tagCount[tag]
}

// TagCount is a tag with its count.
type TagCount struct {
	Tag   string
	Count uint64
}

// Top returns the n most frequent tags. Ties are broken by first appearance.
func (t *TagCountTracer) Top(n int) []TagCount {
	t.lock.Lock()
	defer t.lock.Unlock()

	counts := make([]TagCount, 0, len(t.tagNames))
	for _, name := range t.tagNames {
		counts = append(counts, TagCount{Tag: name, Count: t.tagCount[name]})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if n < len(counts) {
		counts = counts[:n]
	}

	return counts
}
