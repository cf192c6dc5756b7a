// Package trace provides hooks that record every translation step of a
// simulation run.
package trace

import (
	"log"
	"sync"

	"github.com/sarchlab/mmusim/datarecording"
	"github.com/sarchlab/mmusim/sim"
	"github.com/sarchlab/mmusim/sim/hooking"
)

// The tables the DB tracer writes.
const (
	RunTable  = "mmusim_runs"
	StepTable = "mmusim_steps"
)

// RunEntry represents a finished run in the database.
type RunEntry struct {
	RunID      string
	Policy     string
	TLBEntries int
	NumFrames  int
	TestFile   string
	State      string
	Processed  uint64
	TLBHits    uint64
	TLBMisses  uint64
	PageFaults uint64
	Partial    bool
}

// StepEntry represents one translation in the database.
type StepEntry struct {
	RunID       string
	Seq         uint64
	Page        uint64
	Frame       uint64
	Outcome     string
	Evicted     bool
	EvictedPage uint64
}

// A tracer is a hook that writes one line per step into a logger.
type tracer struct {
	logger *log.Logger
}

// NewTracer creates a hook that logs every step as
// "step, run, seq, page, frame, outcome[, evicted page]".
func NewTracer(logger *log.Logger) hooking.Hook {
	return &tracer{logger: logger}
}

func (t *tracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosRunStart:
		info := ctx.Item.(sim.RunInfo)
		t.logger.Printf("start, %s, %s, %d, %d\n",
			info.RunID,
			info.Config.PolicyName,
			info.Config.TLBEntries,
			info.Config.NumFrames)
	case sim.HookPosStep:
		step := ctx.Item.(sim.StepEvent)
		if step.Evicted {
			t.logger.Printf("step, %s, %d, %d, %d, %s, %d\n",
				step.RunID, step.Seq, step.Page, step.Frame,
				step.Outcome, step.EvictedPage)
		} else {
			t.logger.Printf("step, %s, %d, %d, %d, %s\n",
				step.RunID, step.Seq, step.Page, step.Frame, step.Outcome)
		}
	case sim.HookPosRunEnd:
		result := ctx.Item.(sim.Result)
		t.logger.Printf("end, %s, %s, %d, %d, %d\n",
			result.RunID,
			result.State,
			result.Statistics.TLBHits,
			result.Statistics.TLBMisses,
			result.Statistics.PageFaults)
	}
}

// A dbTracer is a hook that records steps and run summaries with a data
// recorder.
type dbTracer struct {
	lock         sync.Mutex
	dataRecorder datarecording.DataRecorder
	recordSteps  bool
}

// NewDBTracer creates a hook that records a row per run and, if recordSteps
// is set, a row per step.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	recordSteps bool,
) hooking.Hook {
	t := &dbTracer{
		dataRecorder: dataRecorder,
		recordSteps:  recordSteps,
	}

	t.dataRecorder.CreateTable(RunTable, RunEntry{})
	t.dataRecorder.CreateTable(StepTable, StepEntry{})

	return t
}

func (t *dbTracer) Func(ctx hooking.HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	switch ctx.Pos {
	case sim.HookPosStep:
		if !t.recordSteps {
			return
		}

		step := ctx.Item.(sim.StepEvent)
		t.dataRecorder.InsertData(StepTable, StepEntry{
			RunID:       step.RunID,
			Seq:         step.Seq,
			Page:        step.Page,
			Frame:       step.Frame,
			Outcome:     step.Outcome.String(),
			Evicted:     step.Evicted,
			EvictedPage: step.EvictedPage,
		})
	case sim.HookPosRunEnd:
		result := ctx.Item.(sim.Result)
		t.dataRecorder.InsertData(RunTable, RunEntry{
			RunID:      result.RunID,
			Policy:     result.Config.PolicyName,
			TLBEntries: result.Config.TLBEntries,
			NumFrames:  result.Config.NumFrames,
			TestFile:   result.Config.TestFile,
			State:      result.State.String(),
			Processed:  result.Processed,
			TLBHits:    result.Statistics.TLBHits,
			TLBMisses:  result.Statistics.TLBMisses,
			PageFaults: result.Statistics.PageFaults,
			Partial:    result.Partial,
		})
		t.dataRecorder.Flush()
	}
}
