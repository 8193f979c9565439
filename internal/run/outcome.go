// Package run holds the shared orchestration skeleton: the per-unit Outcome
// model, the run-level summary aggregation, the error artifact, and progress
// reporting. Stages produce Outcomes; a single coordinator drains and
// aggregates them.
package run

import "fmt"

// Kind tags the result of processing one work unit.
type Kind int

const (
	Success Kind = iota
	Skipped      // precondition satisfied, nothing to do
	NoData       // legitimately empty unit, not a failure
	Failed
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case NoData:
		return "no_data"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome is the tagged result of processing one work unit. Failed outcomes
// always name the unit in Diag so diagnostics survive out-of-order
// completion.
type Outcome struct {
	Unit string
	Kind Kind
	Diag string
}

// OK returns a success outcome for unit.
func OK(unit string) Outcome { return Outcome{Unit: unit, Kind: Success} }

// Skip returns a skipped outcome (idempotence guard hit).
func Skip(unit string) Outcome { return Outcome{Unit: unit, Kind: Skipped} }

// Empty returns a no-data outcome for a legitimately empty unit.
func Empty(unit string) Outcome { return Outcome{Unit: unit, Kind: NoData} }

// Fail returns a failed outcome whose diagnostic names the unit and cause.
func Fail(unit string, err error) Outcome {
	return Outcome{Unit: unit, Kind: Failed, Diag: fmt.Sprintf("%s: %v", unit, err)}
}

// Failf is Fail with a formatted cause.
func Failf(unit, format string, args ...any) Outcome {
	return Outcome{
		Unit: unit,
		Kind: Failed,
		Diag: unit + ": " + fmt.Sprintf(format, args...),
	}
}
