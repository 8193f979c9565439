package run

import (
	"github.com/rs/zerolog"
)

// Progress reports aggregate counts as outcomes arrive. It exists for
// operator visibility only; correctness never depends on it. Observe is
// called from the single draining coordinator, in completion order.
type Progress struct {
	log   zerolog.Logger
	every int
}

// NewProgress creates a reporter that logs a counter line every n completed
// units (and always on failure). n <= 0 disables the periodic line.
func NewProgress(log zerolog.Logger, every int) *Progress {
	return &Progress{log: log, every: every}
}

// Observe logs the current counters for one recorded outcome.
func (p *Progress) Observe(s *Summary, o Outcome) {
	if o.Kind == Failed {
		p.log.Warn().
			Str("unit", o.Unit).
			Str("diag", o.Diag).
			Msg("unit failed")
	}

	done := s.Processed()
	if p.every > 0 && (done%p.every == 0 || done == s.Total) {
		p.log.Info().
			Int("done", done).
			Int("total", s.Total).
			Int("success", s.Success).
			Int("skipped", s.Skipped).
			Int("no_data", s.NoData).
			Int("failed", s.Failed).
			Msg("progress")
	}
}
