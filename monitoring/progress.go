package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/mmusim/sim"
	"github.com/sarchlab/mmusim/sim/hooking"
)

// A ProgressBar is a tracker of the progress. A Total of 0 means the total is
// not known in advance.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

type progressBarView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

func (b *ProgressBar) view() progressBarView {
	b.Lock()
	defer b.Unlock()

	return progressBarView{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
	}
}

// runProgressHook keeps one progress bar per active run.
type runProgressHook struct {
	monitor *Monitor

	lock sync.Mutex
	bars map[string]*ProgressBar
}

func newRunProgressHook(m *Monitor) *runProgressHook {
	return &runProgressHook{
		monitor: m,
		bars:    make(map[string]*ProgressBar),
	}
}

func (h *runProgressHook) Func(ctx hooking.HookCtx) {
	h.lock.Lock()
	defer h.lock.Unlock()

	switch ctx.Pos {
	case sim.HookPosRunStart:
		info := ctx.Item.(sim.RunInfo)
		h.bars[info.RunID] = h.monitor.CreateProgressBar("Run "+info.RunID, 0)
	case sim.HookPosStep:
		step := ctx.Item.(sim.StepEvent)
		if bar, ok := h.bars[step.RunID]; ok {
			bar.IncrementFinished(1)
		}
	case sim.HookPosRunEnd:
		result := ctx.Item.(sim.Result)
		if bar, ok := h.bars[result.RunID]; ok {
			h.monitor.CompleteProgressBar(bar)
			delete(h.bars, result.RunID)
		}
	}
}
