// Package analyzer wires the five pipeline stages (spec §2) into a single
// entry point: frame-size table, disassembly, call-graph reconstruction,
// section sizes and the solver, producing a final report.
package analyzer

import (
	"io"

	"github.com/pkg/errors"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/callgraph"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/config"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/diagnostics"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/disasm"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/framesize"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/report"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/sections"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/solver"
)

// Sentinel errors distinguishing the analyzer's fatal-input conditions, so a
// caller (the CLI) can map them to the right exit code without string
// matching.
var (
	ErrFatalInput       = errors.New("analyzer: fatal input error")
	ErrNoReachableRoot  = errors.New("analyzer: no reachable root")
	ErrEmptySymbolTable = errors.New("analyzer: empty symbol table")
)

// Inputs bundles the three textual artifacts the analyzer reads: the
// frame-size listing(s), the disassembly and the section-size summary. The
// call-graph and solver stages read no artifact of their own. FrameSize
// accepts multiple readers per spec §4.1.
type Inputs struct {
	FrameSize    []io.Reader
	Disasm       io.Reader
	SectionSizes io.Reader
}

// Run executes the full pipeline (spec §2) and returns the final report.
// Every error it returns wraps one of the sentinel errors above.
func Run(in Inputs, cfg config.Config) (report.Report, *diagnostics.Diagnostics, error) {
	rep, _, diag, err := RunGraph(in, cfg)
	return rep, diag, err
}

// RunGraph is Run plus the reconstructed call graph, for callers that also
// want a DOT rendering without re-parsing the inputs.
func RunGraph(in Inputs, cfg config.Config) (report.Report, *callgraph.Graph, *diagnostics.Diagnostics, error) {
	diag := diagnostics.New()

	frames, err := framesize.ParseAll(in.FrameSize, diag)
	if err != nil {
		return report.Report{}, nil, diag, errors.Wrap(ErrFatalInput, err.Error())
	}

	table, err := disasm.Parse(in.Disasm, diag)
	if err != nil {
		if errors.Is(err, disasm.ErrNoSymbols) {
			return report.Report{}, nil, diag, errors.Wrap(ErrEmptySymbolTable, err.Error())
		}
		return report.Report{}, nil, diag, errors.Wrap(ErrFatalInput, err.Error())
	}

	sizes, err := sections.Parse(in.SectionSizes)
	if err != nil {
		return report.Report{}, nil, diag, errors.Wrap(ErrFatalInput, err.Error())
	}

	graph := callgraph.Build(table, frames, cfg, diag)

	result, err := solver.Solve(graph, cfg, diag)
	if err != nil {
		return report.Report{}, graph, diag, errors.Wrap(ErrNoReachableRoot, err.Error())
	}

	return report.Build(result, sizes, cfg, diag), graph, diag, nil
}
