package sim

import (
	"fmt"

	"github.com/sarchlab/mmusim/mem/vm/replacement"
)

// A RunRequest asks for one simulation run. Exactly one of Addresses and
// TestFile must be set. An empty Addresses string is a valid, empty trace.
type RunRequest struct {
	TLBEntries int     `json:"tlb_entries"`
	NumFrames  int     `json:"num_frames"`
	RepPolicy  string  `json:"rep_policy"`
	Addresses  *string `json:"addresses"`
	TestFile   *string `json:"test_file"`
}

// RunConfig is the validated form of a RunRequest.
type RunConfig struct {
	TLBEntries int              `json:"tlb_entries"`
	NumFrames  int              `json:"num_frames"`
	Policy     replacement.Kind `json:"-"`
	PolicyName string           `json:"rep_policy"`
	TestFile   string           `json:"test_file,omitempty"`
}

// Validate checks the request and converts it into a RunConfig.
func (r RunRequest) Validate() (RunConfig, error) {
	if r.TLBEntries < 1 {
		return RunConfig{}, fmt.Errorf("%w: tlb_entries must be at least 1, got %d",
			ErrValidation, r.TLBEntries)
	}

	if r.NumFrames < 1 {
		return RunConfig{}, fmt.Errorf("%w: num_frames must be at least 1, got %d",
			ErrValidation, r.NumFrames)
	}

	kind, ok := replacement.ParseKind(r.RepPolicy)
	if !ok {
		return RunConfig{}, fmt.Errorf("%w: unknown replacement policy %q",
			ErrValidation, r.RepPolicy)
	}

	switch {
	case r.Addresses == nil && r.TestFile == nil:
		return RunConfig{}, fmt.Errorf("%w: no address source provided",
			ErrValidation)
	case r.Addresses != nil && r.TestFile != nil:
		return RunConfig{}, fmt.Errorf("%w: both addresses and test_file provided",
			ErrValidation)
	}

	c := RunConfig{
		TLBEntries: r.TLBEntries,
		NumFrames:  r.NumFrames,
		Policy:     kind,
		PolicyName: kind.String(),
	}

	if r.TestFile != nil {
		if *r.TestFile == "" {
			return RunConfig{}, fmt.Errorf("%w: empty test_file", ErrValidation)
		}

		c.TestFile = *r.TestFile
	}

	return c, nil
}
