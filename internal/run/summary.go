package run

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Summary aggregates per-unit outcomes for one pipeline execution. It is
// owned by the single coordinator that drains worker results; Record must
// never be called concurrently. Counts only increase until Finalize.
type Summary struct {
	RunID string
	Total int

	Success int
	Skipped int
	NoData  int
	Failed  int

	// Diags holds failure diagnostics in completion order.
	Diags []string

	started   time.Time
	elapsed   time.Duration
	finalized bool
}

// NewSummary creates an empty summary for a run over total units.
func NewSummary(total int) *Summary {
	return &Summary{
		RunID:   uuid.NewString(),
		Total:   total,
		started: time.Now(),
	}
}

// Record folds one outcome into the summary. Calling Record after Finalize
// is a programming error and panics.
func (s *Summary) Record(o Outcome) {
	if s.finalized {
		panic("run: Record after Finalize")
	}
	switch o.Kind {
	case Success:
		s.Success++
	case Skipped:
		s.Skipped++
	case NoData:
		s.NoData++
	case Failed:
		s.Failed++
		s.Diags = append(s.Diags, o.Diag)
	}
}

// Finalize freezes the summary and stamps the elapsed run time.
func (s *Summary) Finalize() *Summary {
	if !s.finalized {
		s.finalized = true
		s.elapsed = time.Since(s.started)
	}
	return s
}

// Clean reports whether the run completed without failures.
func (s *Summary) Clean() bool { return s.Failed == 0 }

// Elapsed returns the wall time of the run; zero until Finalize.
func (s *Summary) Elapsed() time.Duration { return s.elapsed }

// Processed returns how many outcomes have been recorded so far.
func (s *Summary) Processed() int {
	return s.Success + s.Skipped + s.NoData + s.Failed
}

func (s *Summary) String() string {
	return fmt.Sprintf("success:%d skipped:%d no_data:%d failed:%d",
		s.Success, s.Skipped, s.NoData, s.Failed)
}

// Collect drains outcome slices from ch into a fresh summary until the
// channel closes, reporting progress along the way. This is the only place
// the summary is mutated, so no locking is needed (the pool guarantees ch
// carries results in completion order).
func Collect(total int, ch <-chan []Outcome, progress *Progress) *Summary {
	s := NewSummary(total)
	for outcomes := range ch {
		for _, o := range outcomes {
			s.Record(o)
			if progress != nil {
				progress.Observe(s, o)
			}
		}
	}
	return s.Finalize()
}
