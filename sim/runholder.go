package sim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/mmusim/sim/id"
)

// A RunHolder admits at most one active run at a time and keeps the latest
// published snapshot. Engines that share a holder share the limit.
type RunHolder struct {
	idGen id.IDGenerator

	lock     sync.Mutex
	activeID string

	snapshot atomic.Pointer[Snapshot]
}

// NewRunHolder creates a RunHolder that names runs with idGen. The generator
// should produce increasing IDs, such as id.NewIDGenerator.
func NewRunHolder(idGen id.IDGenerator) *RunHolder {
	return &RunHolder{idGen: idGen}
}

// Active returns the ID of the active run, if there is one.
func (h *RunHolder) Active() (runID string, active bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	return h.activeID, h.activeID != ""
}

// Snapshot returns the last published snapshot. The bool is false if no run
// has been started yet. It never blocks the run that publishes.
func (h *RunHolder) Snapshot() (Snapshot, bool) {
	s := h.snapshot.Load()
	if s == nil {
		return Snapshot{}, false
	}

	return *s, true
}

func (h *RunHolder) acquire() (string, error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.activeID != "" {
		return "", fmt.Errorf("%w: run %s is still active", ErrConflict, h.activeID)
	}

	h.activeID = h.idGen.Generate()

	h.snapshot.Store(&Snapshot{
		RunID: h.activeID,
		State: StateRunning,
	})

	return h.activeID, nil
}

func (h *RunHolder) publish(s Snapshot) {
	h.snapshot.Store(&s)
}

func (h *RunHolder) release(runID string) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.activeID != runID {
		panic(fmt.Sprintf("releasing run %s while run %s is active",
			runID, h.activeID))
	}

	h.activeID = ""
}
