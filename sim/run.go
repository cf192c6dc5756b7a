package sim

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sarchlab/mmusim/mem/vm/mmu"
	"github.com/sarchlab/mmusim/sim/hooking"
)

// PageSize is the page size reported in summaries, in bytes. Translation
// works on page numbers and does not depend on it.
const PageSize = 4096

// A Result is the outcome of a finished run. It does not change after the run
// ends.
type Result struct {
	RunID             string     `json:"run_id"`
	Config            RunConfig  `json:"config"`
	State             State      `json:"state"`
	Statistics        Statistics `json:"statistics"`
	Processed         uint64     `json:"processed"`
	Logs              []string   `json:"logs"`
	Partial           bool       `json:"partial"`
	LogTruncated      bool       `json:"log_truncated"`
	DroppedLogEntries int        `json:"dropped_log_entries"`
}

func (r Result) clone() Result {
	r.Logs = slices.Clone(r.Logs)
	return r
}

// Summary returns the report header of the result.
func (r Result) Summary() []string {
	p := message.NewPrinter(language.English)
	rule := strings.Repeat("=", 60)

	lines := []string{
		rule,
		"SIMULADOR DE MEMÓRIA - Estatísticas de Acesso",
		rule,
		fmt.Sprintf("Política de Substituição:   %s", r.Config.PolicyName),
		fmt.Sprintf("Tamanho da Página:          %d bytes", PageSize),
		fmt.Sprintf("Entradas na TLB:            %d", r.Config.TLBEntries),
		fmt.Sprintf("Número de Frames:           %d", r.Config.NumFrames),
		strings.Repeat("-", 60),
		p.Sprintf("TLB Hits:                   %d", r.Statistics.TLBHits),
		p.Sprintf("TLB Misses:                 %d", r.Statistics.TLBMisses),
		p.Sprintf("Page Faults:                %d", r.Statistics.PageFaults),
		rule,
	}

	if r.Partial {
		lines = append(lines, fmt.Sprintf(
			"RUN FAILED after %d addresses, statistics are partial", r.Processed))
	}

	return lines
}

// A Run is one execution of a trace. Only its own goroutine mutates it.
type Run struct {
	id     string
	config RunConfig
	engine *Engine
	mmu    *mmu.MMU
	source io.ReadCloser

	stats     Statistics
	processed uint64
	log       *Log

	done   chan struct{}
	result Result
	err    error
}

func newRun(e *Engine, runID string, config RunConfig, source io.ReadCloser) *Run {
	return &Run{
		id:     runID,
		config: config,
		engine: e,
		mmu: mmu.MakeBuilder().
			WithNumTLBEntries(config.TLBEntries).
			WithNumFrames(config.NumFrames).
			WithPolicy(config.Policy).
			Build(e.name + ".MMU"),
		source: source,
		log:    NewLog(e.maxLogEntries),
		done:   make(chan struct{}),
	}
}

// ID returns the run ID.
func (r *Run) ID() string {
	return r.id
}

// Config returns the validated configuration of the run.
func (r *Run) Config() RunConfig {
	return r.config
}

// Done is closed when the run has ended and the holder is free again.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run ends or ctx expires. A failed run returns its
// partial result together with the error that stopped it. Every call returns
// its own copy of the log.
func (r *Run) Wait(ctx context.Context) (Result, error) {
	select {
	case <-r.done:
		return r.result.clone(), r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (r *Run) execute() {
	defer close(r.done)
	defer r.engine.holder.release(r.id)

	r.engine.InvokeHook(hooking.HookCtx{
		Domain: r.engine,
		Pos:    HookPosRunStart,
		Item:   RunInfo{RunID: r.id, Config: r.config},
	})

	err := r.consume()

	if closeErr := r.source.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("closing trace: %w", closeErr)
	}

	r.finish(err)
}

func (r *Run) consume() error {
	s := NewAddressScanner(r.source)

	for s.Scan() {
		if err := r.step(s.Page()); err != nil {
			return fmt.Errorf("line %d: %w", s.Line(), err)
		}
	}

	if err := s.Err(); err != nil {
		return err
	}

	return r.mmu.Verify()
}

func (r *Run) step(page uint64) error {
	t, err := r.mmu.Translate(page)
	if err != nil {
		return err
	}

	switch t.Outcome {
	case mmu.TLBHit:
		r.stats.TLBHits++
		r.log.Appendf("TLB HIT page %d → frame %d", page, t.Frame)
	case mmu.PageHit:
		r.stats.TLBMisses++
		r.log.Appendf("TLB MISS / PAGE HIT page %d → frame %d", page, t.Frame)
	case mmu.PageFault:
		r.stats.TLBMisses++
		r.stats.PageFaults++

		if t.Evicted {
			r.log.Appendf("PAGE FAULT page %d → frame %d (evicted page %d)",
				page, t.Frame, t.EvictedPage)
		} else {
			r.log.Appendf("PAGE FAULT page %d → frame %d (cold start)",
				page, t.Frame)
		}
	}

	r.processed++

	r.engine.holder.publish(Snapshot{
		RunID:      r.id,
		State:      StateRunning,
		Statistics: r.stats,
		Processed:  r.processed,
	})

	r.engine.InvokeHook(hooking.HookCtx{
		Domain: r.engine,
		Pos:    HookPosStep,
		Item: StepEvent{
			RunID:       r.id,
			Seq:         r.processed,
			Page:        page,
			Frame:       t.Frame,
			Outcome:     t.Outcome,
			Evicted:     t.Evicted,
			EvictedPage: t.EvictedPage,
			Statistics:  r.stats,
		},
	})

	return nil
}

func (r *Run) finish(err error) {
	state := StateCompleted

	if err != nil {
		state = StateFailed
		r.err = fmt.Errorf("run %s failed: %w", r.id, err)
		r.log.Note("ERROR: " + err.Error())
	}

	r.engine.holder.publish(Snapshot{
		RunID:      r.id,
		State:      state,
		Statistics: r.stats,
		Processed:  r.processed,
		Partial:    err != nil,
	})

	r.result = Result{
		RunID:             r.id,
		Config:            r.config,
		State:             state,
		Statistics:        r.stats,
		Processed:         r.processed,
		Logs:              r.log.Lines(),
		Partial:           err != nil,
		LogTruncated:      r.log.Truncated(),
		DroppedLogEntries: r.log.Dropped(),
	}

	if err != nil {
		r.engine.logger.Printf("run %s failed after %d addresses: %v",
			r.id, r.processed, err)
	} else {
		r.engine.logger.Printf("run %s completed: %d addresses, "+
			"tlb_hits=%d, tlb_misses=%d, page_faults=%d",
			r.id, r.processed, r.stats.TLBHits, r.stats.TLBMisses,
			r.stats.PageFaults)
	}

	r.engine.InvokeHook(hooking.HookCtx{
		Domain: r.engine,
		Pos:    HookPosRunEnd,
		Item:   r.result.clone(),
	})
}
