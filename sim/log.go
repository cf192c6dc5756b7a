package sim

import "fmt"

// DefaultMaxLogEntries is the number of step entries a run keeps unless
// configured otherwise.
const DefaultMaxLogEntries = 10000

// A Log stores the first entries of a run and counts the rest.
type Log struct {
	max     int
	entries []string
	notes   []string
	dropped int
}

// NewLog creates a log that stores at most max entries. A max of zero or less
// means no limit.
func NewLog(max int) *Log {
	return &Log{max: max}
}

// Append adds an entry, or counts it as dropped when the log is full.
func (l *Log) Append(entry string) {
	if l.max > 0 && len(l.entries) >= l.max {
		l.dropped++
		return
	}

	l.entries = append(l.entries, entry)
}

// Appendf formats and adds an entry.
func (l *Log) Appendf(format string, args ...interface{}) {
	if l.max > 0 && len(l.entries) >= l.max {
		l.dropped++
		return
	}

	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

// Note adds a line that is always kept, after the entries, regardless of the
// limit.
func (l *Log) Note(line string) {
	l.notes = append(l.notes, line)
}

// Dropped returns the number of entries that were not stored.
func (l *Log) Dropped() int {
	return l.dropped
}

// Truncated tells if any entry was dropped.
func (l *Log) Truncated() bool {
	return l.dropped > 0
}

// Lines returns a copy of the stored entries. When entries were dropped, a
// line stating how many follows them. Notes come last.
func (l *Log) Lines() []string {
	lines := make([]string, 0, len(l.entries)+len(l.notes)+1)
	lines = append(lines, l.entries...)

	if l.dropped > 0 {
		lines = append(lines, fmt.Sprintf(
			"... %d more log entries not shown (limit %d entries)",
			l.dropped, l.max))
	}

	lines = append(lines, l.notes...)

	return lines
}
