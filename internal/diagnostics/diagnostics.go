// Package diagnostics collects the non-fatal findings (warnings and
// counters) that every pipeline stage may produce. It is deliberately a leaf
// package with no dependency on the rest of the analyzer so that any stage
// can import it without cycles.
package diagnostics

import "fmt"

// Sink is the warning-recording method set; *Diagnostics satisfies it. The
// pipeline stages take a *Diagnostics directly, and the CLI prints the
// collected warnings as part of the report.
type Sink interface {
	Warnf(format string, args ...any)
}

// Diagnostics accumulates warnings and the handful of counters the report
// needs (§7: Recoverable-parse, Unresolved-call, Missing-frame,
// Heuristic-bound).
type Diagnostics struct {
	Warnings             []string
	UnresolvedCalls      int
	MissingFrames        int
	RecoverableParseErrs int
	BoundedByHeuristic   bool
}

// New returns an empty accumulator.
func New() *Diagnostics {
	return &Diagnostics{}
}

// Warnf records a formatted warning. It satisfies Sink.
func (d *Diagnostics) Warnf(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}
