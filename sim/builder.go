package sim

import (
	"io"
	"log"

	"github.com/sarchlab/mmusim/sim/id"
)

// A Builder can build engines.
type Builder struct {
	holder        *RunHolder
	opener        TraceOpener
	logger        *log.Logger
	maxLogEntries int
}

// MakeBuilder creates a new builder
func MakeBuilder() Builder {
	return Builder{
		maxLogEntries: DefaultMaxLogEntries,
	}
}

// WithRunHolder sets the holder that admits runs. Engines sharing a holder
// never run at the same time. By default each engine has its own holder.
func (b Builder) WithRunHolder(h *RunHolder) Builder {
	b.holder = h
	return b
}

// WithTraceOpener sets where test files are opened from.
func (b Builder) WithTraceOpener(o TraceOpener) Builder {
	b.opener = o
	return b
}

// WithLogger sets the logger that reports run starts and ends.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithMaxLogEntries sets how many step entries a run result keeps. Zero
// removes the limit.
func (b Builder) WithMaxLogEntries(n int) Builder {
	b.maxLogEntries = n
	return b
}

// Build creates an engine.
func (b Builder) Build(name string) *Engine {
	if b.maxLogEntries < 0 {
		panic("max log entries must not be negative")
	}

	e := &Engine{
		name:          name,
		holder:        b.holder,
		opener:        b.opener,
		logger:        b.logger,
		maxLogEntries: b.maxLogEntries,
	}

	if e.holder == nil {
		e.holder = NewRunHolder(id.NewIDGenerator())
	}

	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}

	return e
}
