// Package report assembles and renders the final memory report (spec §3,
// §6): stack worst case combined with .data/.bss sizes against a declared
// RAM budget.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/config"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/diagnostics"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/sections"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/solver"
)

// Report is the analyzer's output record, matching spec §6 exactly plus the
// mcu/ram_total/stack_overhead_per_call fields spec.md's §3 Memory report
// names.
type Report struct {
	MCU      string `json:"mcu"`
	RAMTotal int    `json:"ram_total"`

	DataBytes int `json:"data_bytes"`
	BSSBytes  int `json:"bss_bytes"`

	StackWorstCase       int `json:"stack_worst_case"`
	StackOverheadPerCall int `json:"stack_overhead_per_call"`

	FreeRAM            int      `json:"free_ram"`
	Overflow           bool     `json:"overflow"`
	BoundedByHeuristic bool     `json:"bounded_by_heuristic"`
	UnresolvedCalls    int      `json:"unresolved_calls"`
	LongestPath        []string `json:"longest_path"`
	Warnings           []string `json:"warnings"`
}

// Build combines a solver result, section sizes, configuration and
// diagnostics into the final Report (spec §3's Memory report invariants).
func Build(res solver.Result, sizes sections.Sizes, cfg config.Config, diag *diagnostics.Diagnostics) Report {
	r := Report{
		MCU:                  cfg.MCU,
		RAMTotal:             cfg.RAMTotal,
		DataBytes:            sizes.Data,
		BSSBytes:             sizes.BSS,
		StackWorstCase:       res.StackWorstCase,
		StackOverheadPerCall: cfg.CallOverheadBytes,
		BoundedByHeuristic:   res.BoundedByHeuristic,
		UnresolvedCalls:      diag.UnresolvedCalls,
		LongestPath:          res.LongestPath,
		Warnings:             diag.Warnings,
	}
	r.FreeRAM = r.RAMTotal - (r.DataBytes + r.BSSBytes + r.StackWorstCase)
	r.Overflow = r.FreeRAM < 0
	return r
}

// WriteJSON renders the report as indented JSON (spec §6's output record).
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteHuman renders a short, terminal-oriented summary, the human-readable
// counterpart to WriteJSON's machine-readable output.
func (r Report) WriteHuman(w io.Writer) error {
	status := "OK"
	if r.Overflow {
		status = "OVERFLOW"
	}
	fmt.Fprintf(w, "avrstack report for %s (ram_total=%d)\n", r.MCU, r.RAMTotal)
	fmt.Fprintf(w, "  status:              %s\n", status)
	fmt.Fprintf(w, "  stack worst case:    %d bytes (overhead/call=%d)\n", r.StackWorstCase, r.StackOverheadPerCall)
	fmt.Fprintf(w, "  data+bss:            %d bytes (data=%d bss=%d)\n", r.DataBytes+r.BSSBytes, r.DataBytes, r.BSSBytes)
	fmt.Fprintf(w, "  free ram:            %d bytes\n", r.FreeRAM)
	fmt.Fprintf(w, "  bounded by heuristic: %v\n", r.BoundedByHeuristic)
	fmt.Fprintf(w, "  unresolved calls:    %d\n", r.UnresolvedCalls)
	if len(r.LongestPath) > 0 {
		fmt.Fprintf(w, "  longest path:        %s\n", strings.Join(r.LongestPath, " -> "))
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	return nil
}

// ExitCode implements spec §6's CLI exit-code convention: 0 = no overflow,
// 1 = overflow. (2, fatal input error, is produced directly by the CLI
// before a Report even exists.)
func (r Report) ExitCode() int {
	if r.Overflow {
		return 1
	}
	return 0
}
