// Package replacement provides the policies that decide which resident page
// gives up its frame when a page fault happens and no frame is free.
package replacement

import (
	"fmt"
	"strings"
)

// Kind identifies one of the supported replacement policies.
type Kind int

// The supported policies. The set is closed on purpose; New panics on
// anything else.
const (
	LRU Kind = iota
	Clock
)

func (k Kind) String() string {
	switch k {
	case LRU:
		return "LRU"
	case Clock:
		return "ClockSecondChance"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a policy name into a Kind. Names are matched case
// insensitively. "Clock" and "SecondChance" are accepted as aliases of
// "ClockSecondChance".
func ParseKind(name string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lru":
		return LRU, true
	case "clocksecondchance", "clock", "secondchance", "second_chance":
		return Clock, true
	default:
		return 0, false
	}
}

// A Policy tracks the resident pages of a page table and selects eviction
// victims.
type Policy interface {
	// Kind returns which policy this is.
	Kind() Kind

	// Admit registers that page has just been loaded into frame. Loading
	// counts as a reference.
	Admit(page, frame uint64)

	// Touch registers a reference to a resident page.
	Touch(page, frame uint64)

	// Victim selects a resident page to evict and stops tracking it. The
	// bool is false if no page can be selected.
	Victim() (page, frame uint64, ok bool)

	// Forget stops tracking a page without selecting it as a victim.
	Forget(page, frame uint64)

	// Len returns the number of tracked pages.
	Len() int

	sealed()
}

// New creates a policy of the given kind for a table of numFrames frames.
func New(kind Kind, numFrames int) Policy {
	if numFrames < 1 {
		panic("number of frames must be at least 1")
	}

	switch kind {
	case LRU:
		return newLRUPolicy(numFrames)
	case Clock:
		return newClockPolicy(numFrames)
	default:
		panic(fmt.Sprintf("unknown replacement policy %d", int(kind)))
	}
}
