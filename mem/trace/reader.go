package trace

import (
	"context"

	"github.com/sarchlab/mmusim/datarecording"
)

// ReadRuns returns the recorded runs in the order they ended.
func ReadRuns(ctx context.Context, r *datarecording.Reader) ([]RunEntry, error) {
	return datarecording.Query[RunEntry](ctx, r, RunTable,
		datarecording.QueryParams{OrderBy: "rowid"})
}

// ReadSteps returns limit recorded steps of a run starting after offset, in
// step order, and the number of steps recorded for the run. A limit of 0
// returns every step.
func ReadSteps(
	ctx context.Context,
	r *datarecording.Reader,
	runID string,
	offset, limit int,
) ([]StepEntry, int, error) {
	params := datarecording.QueryParams{
		Where:   "RunID = ?",
		Args:    []any{runID},
		OrderBy: "Seq",
		Limit:   limit,
		Offset:  offset,
	}

	total, err := r.Count(ctx, StepTable, params)
	if err != nil {
		return nil, 0, err
	}

	steps, err := datarecording.Query[StepEntry](ctx, r, StepTable, params)
	if err != nil {
		return nil, 0, err
	}

	return steps, total, nil
}
