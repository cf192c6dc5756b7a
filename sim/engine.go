// Package sim runs address traces through a TLB and a page table and reports
// what happened at every step.
package sim

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/sarchlab/mmusim/mem/vm/mmu"
	"github.com/sarchlab/mmusim/sim/hooking"
)

// A TraceOpener opens a stored trace by name. Missing traces are reported
// with an error wrapping ErrNotFound.
type TraceOpener interface {
	Open(name string) (io.ReadCloser, error)
}

// HookPosRunStart is triggered on the stepping goroutine before the first
// address. The item is a RunInfo.
var HookPosRunStart = &hooking.HookPos{Name: "RunStart"}

// HookPosStep is triggered after each address. The item is a StepEvent.
var HookPosStep = &hooking.HookPos{Name: "Step"}

// HookPosRunEnd is triggered when a run completes or fails. The item is the
// Result.
var HookPosRunEnd = &hooking.HookPos{Name: "RunEnd"}

// RunInfo describes a run that is starting.
type RunInfo struct {
	RunID  string
	Config RunConfig
}

// A StepEvent describes the translation of one address.
type StepEvent struct {
	RunID       string
	Seq         uint64
	Page        uint64
	Frame       uint64
	Outcome     mmu.Outcome
	Evicted     bool
	EvictedPage uint64
	Statistics  Statistics
}

// An Engine accepts run requests and executes them one at a time.
type Engine struct {
	hooking.HookableBase

	name          string
	holder        *RunHolder
	opener        TraceOpener
	logger        *log.Logger
	maxLogEntries int

	lastLock sync.Mutex
	last     *Run
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// Holder returns the RunHolder that limits the engine to one active run.
func (e *Engine) Holder() *RunHolder {
	return e.holder
}

// LastRun returns the most recently started run, or nil.
func (e *Engine) LastRun() *Run {
	e.lastLock.Lock()
	defer e.lastLock.Unlock()

	return e.last
}

// Start validates the request and starts the run on its own goroutine.
func (e *Engine) Start(req RunRequest) (*Run, error) {
	config, err := req.Validate()
	if err != nil {
		return nil, err
	}

	source, err := e.openSource(req, config)
	if err != nil {
		return nil, err
	}

	runID, err := e.holder.acquire()
	if err != nil {
		source.Close()
		return nil, err
	}

	r := newRun(e, runID, config, source)

	if config.TestFile != "" {
		r.log.Appendf("Loading from test file: %s", config.TestFile)
	} else {
		r.log.Append("Loading from manual address trace.")
	}

	e.lastLock.Lock()
	e.last = r
	e.lastLock.Unlock()

	e.logger.Printf("run %s started: policy=%s, tlb_entries=%d, num_frames=%d",
		runID, config.PolicyName, config.TLBEntries, config.NumFrames)

	go r.execute()

	return r, nil
}

// Run starts a run and waits for it. If ctx expires first, the run keeps
// going and the context error is returned.
func (e *Engine) Run(ctx context.Context, req RunRequest) (Result, error) {
	r, err := e.Start(req)
	if err != nil {
		return Result{}, err
	}

	return r.Wait(ctx)
}

func (e *Engine) openSource(
	req RunRequest,
	config RunConfig,
) (io.ReadCloser, error) {
	if req.Addresses != nil {
		return io.NopCloser(strings.NewReader(*req.Addresses)), nil
	}

	if e.opener == nil {
		return nil, fmt.Errorf("%w: test file %q, no trace directory",
			ErrNotFound, config.TestFile)
	}

	return e.opener.Open(config.TestFile)
}
