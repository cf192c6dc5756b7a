package sim

import (
	"errors"

	"github.com/sarchlab/mmusim/mem/vm"
)

// The error kinds of the simulator. Every error returned by this package and
// by the packages built on it wraps one of them.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrInvariant  = vm.ErrInvariant
)
