package calculator

import (
	"fmt"
	"sort"

	"github.com/devpulse/devpulse/internal/logger"
)

// Quality counts records skipped during aggregation, keyed by reason. A bad
// record never aborts a run; it lands here and shows up in the summary.
type Quality struct {
	counts map[string]int
}

func NewQuality() *Quality {
	return &Quality{counts: make(map[string]int)}
}

// Skip records one skipped record and logs it with context.
func (q *Quality) Skip(reason string, args ...any) {
	q.counts[reason]++
	logger.Warn("record skipped: "+reason, args...)
}

func (q *Quality) Total() int {
	var n int
	for _, c := range q.counts {
		n += c
	}
	return n
}

// Lines renders the end-of-run summary, one line per reason, sorted so
// output is stable.
func (q *Quality) Lines() []string {
	reasons := make([]string, 0, len(q.counts))
	for r := range q.counts {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)

	lines := make([]string, 0, len(reasons))
	for _, r := range reasons {
		lines = append(lines, fmt.Sprintf("%d records skipped: %s", q.counts[r], r))
	}
	return lines
}
