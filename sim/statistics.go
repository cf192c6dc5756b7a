package sim

import (
	"fmt"
	"strings"
)

// Statistics are the counters of a run.
type Statistics struct {
	TLBHits    uint64 `json:"tlb_hits"`
	TLBMisses  uint64 `json:"tlb_misses"`
	PageFaults uint64 `json:"page_faults"`
}

// Accesses returns the number of addresses the counters account for.
func (s Statistics) Accesses() uint64 {
	return s.TLBHits + s.TLBMisses
}

// State is the lifecycle state of a run.
type State int

// The states of a run.
const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StateRunning:   "running",
	StateCompleted: "completed",
	StateFailed:    "failed",
}

func (s State) String() string {
	name, ok := stateNames[s]
	if !ok {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return name
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	name, ok := stateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown state %d", int(s))
	}

	return []byte(name), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if strings.EqualFold(name, string(text)) {
			*s = state
			return nil
		}
	}

	return fmt.Errorf("%w: unknown state %q", ErrValidation, text)
}

// A Snapshot is the progress of a run as published after each address. A
// snapshot is never modified once published.
type Snapshot struct {
	RunID      string     `json:"run_id"`
	State      State      `json:"state"`
	Statistics Statistics `json:"statistics"`
	Processed  uint64     `json:"processed"`
	Partial    bool       `json:"partial"`
}
