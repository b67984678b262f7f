// Package callgraph reconstructs the whole-program call graph from parsed
// instruction blocks (spec §4.3): direct, tail and indirect edges, plus
// recursion-pattern classification on self-loops.
package callgraph

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/config"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/diagnostics"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/framesize"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/model"
)

// Graph is the reconstructed whole-program call graph: functions as nodes,
// call edges as edges, keyed by caller name. Edges between the same pair of
// functions are collapsed to the single most specific kind (spec §3).
type Graph struct {
	Functions *model.Table
	Edges     map[string][]model.Edge
	Roots     []string // entry ∪ interrupt-handler function names, sorted
}

var (
	directCallMnemonics = map[string]bool{"call": true, "rcall": true}
	indirectMnemonics   = map[string]bool{"icall": true, "eicall": true}
	tailJumpMnemonics   = map[string]bool{"jmp": true, "rjmp": true}

	// addressReference extracts a symbol name from an operand or comment of
	// the shape "pm_lo8(foo)", "pm_hi8(foo)" or a disassembler annotation
	// "<foo>" / "<foo+0x2>".
	addressReference = regexp.MustCompile(`(?:pm_lo8|pm_hi8)\(([A-Za-z_.$][A-Za-z0-9_.$]*)\)|<([A-Za-z_.$][A-Za-z0-9_.$]*)(?:\+0x[0-9a-fA-F]+)?>`)

	// divHelper matches the avr-libc/avr-gcc runtime helper naming
	// convention for integer division/modulo (e.g. __udivmodqi4,
	// __divmodhi4).
	divHelper = regexp.MustCompile(`^__u?divmod`)
)

// Build walks every function's instruction block and produces the call
// graph, root set and recursion classification described in spec §4.3.
func Build(table *model.Table, frames framesize.Table, cfg config.Config, diag *diagnostics.Diagnostics) *Graph {
	applyFrames(table, frames, diag)
	markKinds(table, cfg)

	addressTaken := addressTakenSet(table)

	g := &Graph{Functions: table, Edges: make(map[string][]model.Edge)}
	for _, fn := range table.All() {
		for i, insn := range fn.Instructions {
			switch {
			case directCallMnemonics[insn.Mnemonic]:
				addEdge(g, fn, resolveDirectCall(table, insn, diag), insn, i)
			case indirectMnemonics[insn.Mnemonic]:
				for _, target := range addressTaken {
					addEdge(g, fn, target, insn, i)
				}
				if len(addressTaken) == 0 {
					addEdge(g, fn, model.UnknownExternal, insn, i)
				}
			case tailJumpMnemonics[insn.Mnemonic]:
				if target, ok := resolveJumpTarget(table, insn); ok {
					e := model.Edge{Caller: fn.Name, Callee: target, SiteAddr: insn.Address, Kind: model.EdgeTail}
					mergeInto(g, e)
				}
				// jmp/rjmp to a non-function-entry address is an
				// intra-function branch, not a call-graph edge.
			}
		}
	}

	classifyRecursion(g)
	computeRoots(g, cfg)
	return g
}

// applyFrames fills in Function.Frame from the frame-size table and warns
// about dynamic entries. Functions with no entry keep Frame 0 and
// FrameKnown false; the Missing-frame warning for the reachable ones is
// recorded later by the solver, which knows reachability.
func applyFrames(table *model.Table, frames framesize.Table, diag *diagnostics.Diagnostics) {
	for _, fn := range table.All() {
		entry, ok := frames[fn.Name]
		if !ok {
			continue // Missing-frame warning deferred to the solver, which knows reachability
		}
		fn.Frame = entry.Bytes
		fn.FrameDynamic = entry.Qualifier == framesize.Dynamic
		fn.FrameKnown = true
		if fn.FrameDynamic {
			diag.Warnf("frame size for %s is dynamic; reported depth is a floor, not a ceiling", fn.Name)
		}
	}
}

// markKinds tags entry and interrupt-handler functions per spec §3, using
// config's isr_naming_pattern plus any extra --entry names.
func markKinds(table *model.Table, cfg config.Config) {
	entryNames := map[string]bool{"main": true}
	for _, e := range cfg.EntryPoints {
		entryNames[e] = true
	}
	for _, fn := range table.All() {
		switch {
		case entryNames[fn.Name]:
			fn.Kind = model.KindEntry
		case cfg.ISRNamingPattern != "" && strings.HasPrefix(fn.Name, cfg.ISRNamingPattern):
			fn.Kind = model.KindInterruptHandler
		}
	}
}

// addressTakenSet collects every function whose entry address is loaded as
// data anywhere in the program (spec §4.3's address-taken-function
// precompute, done in one pass so every indirect site is a simple set
// lookup rather than an O(N*M) rescan, per spec §9).
func addressTakenSet(table *model.Table) []string {
	taken := make(map[string]bool)
	for _, fn := range table.All() {
		for _, insn := range fn.Instructions {
			if insn.Mnemonic != "ldi" {
				continue
			}
			for _, name := range namesReferenced(insn) {
				if _, ok := table.ByName(name); ok {
					taken[name] = true
				}
			}
		}
	}
	names := make([]string, 0, len(taken))
	for name := range taken {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// namesReferenced extracts every symbol name mentioned in an instruction's
// operands or trailing comment.
func namesReferenced(insn model.Instruction) []string {
	var names []string
	haystacks := append(append([]string{}, insn.Operands...), insn.Comment)
	for _, h := range haystacks {
		for _, m := range addressReference.FindAllStringSubmatch(h, -1) {
			if m[1] != "" {
				names = append(names, m[1])
			} else if m[2] != "" {
				names = append(names, m[2])
			}
		}
	}
	return names
}

// resolveDirectCall determines the callee name from the operand comment
// first, falling back to the address index, and finally unknown-external
// (spec §4.3's direct-edge extraction rule).
func resolveDirectCall(table *model.Table, insn model.Instruction, diag *diagnostics.Diagnostics) string {
	for _, name := range namesReferenced(insn) {
		if _, ok := table.ByName(name); ok {
			return name
		}
	}
	if len(insn.Operands) > 0 {
		if addr, ok := parseAddrOperand(insn.Operands[0]); ok {
			if fn, ok := table.ByAddress(addr); ok {
				return fn.Name
			}
		}
	}
	diag.UnresolvedCalls++
	diag.BoundedByHeuristic = true
	return model.UnknownExternal
}

// resolveJumpTarget reports whether a jmp/rjmp operand addresses a known
// function's entry point (spec §4.3's tail-edge rule).
func resolveJumpTarget(table *model.Table, insn model.Instruction) (string, bool) {
	if len(insn.Operands) == 0 {
		return "", false
	}
	addr, ok := parseAddrOperand(insn.Operands[0])
	if !ok {
		return "", false
	}
	fn, ok := table.ByAddress(addr)
	if !ok {
		return "", false
	}
	return fn.Name, true
}

func parseAddrOperand(op string) (uint32, bool) {
	op = strings.TrimSpace(op)
	op = strings.TrimPrefix(op, "0x")
	v, err := strconv.ParseUint(op, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

func addEdge(g *Graph, fn *model.Function, callee string, insn model.Instruction, _ int) {
	kind := model.EdgeDirect
	if callee == fn.Name {
		kind = model.EdgeRecursiveSelf
	} else if indirectMnemonics[insn.Mnemonic] {
		kind = model.EdgeIndirect
	}
	mergeInto(g, model.Edge{Caller: fn.Name, Callee: callee, SiteAddr: insn.Address, Kind: kind})
}

func mergeInto(g *Graph, e model.Edge) {
	edges := g.Edges[e.Caller]
	for i, existing := range edges {
		if existing.Callee == e.Callee {
			edges[i] = model.Merge(existing, e)
			return
		}
	}
	g.Edges[e.Caller] = append(edges, e)
}

// computeRoots sets Roots to the sorted set of entry and interrupt-handler
// function names (spec §3, "Roots are entry-kind functions ∪
// interrupt-handlers").
func computeRoots(g *Graph, _ config.Config) {
	var roots []string
	for _, fn := range g.Functions.All() {
		if fn.Kind == model.KindEntry || fn.Kind == model.KindInterruptHandler {
			roots = append(roots, fn.Name)
		}
	}
	sort.Strings(roots)
	g.Roots = roots
}
