// Package solver computes the worst-case stack depth over the reconstructed
// call graph (spec §4.5): SCC condensation, a depth multiplier for cycles,
// and a longest-path dynamic program over the resulting DAG.
package solver

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/callgraph"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/config"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/diagnostics"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/model"
)

// Result is the solver's output, before it is combined with section sizes
// into the final memory report (spec §4.5's "Output").
type Result struct {
	StackWorstCase     int
	BoundedByHeuristic bool
	LongestPath        []string
}

// Solve computes the worst-case stack depth for g under cfg. It is a pure
// function of its inputs (spec §5): the only side effect is recording
// warnings/counters onto diag.
func Solve(g *callgraph.Graph, cfg config.Config, diag *diagnostics.Diagnostics) (Result, error) {
	if len(g.Roots) == 0 {
		return Result{}, errors.New("solver: no reachable root (no main and no interrupt handler found)")
	}

	sccOf, sccs := indexSCCs(g)
	reportMissingFrames(g, diag)

	s := &solver{
		graph: g,
		cfg:   cfg,
		sccOf: sccOf,
		sccs:  sccs,
		memo:  make(map[int]nodeResult),
		diag:  diag,
	}

	var nonISR, isr []string
	for _, root := range g.Roots {
		fn, _ := g.Functions.ByName(root)
		if fn.Kind == model.KindInterruptHandler {
			isr = append(isr, root)
		} else {
			nonISR = append(nonISR, root)
		}
	}

	bestNonISR := s.bestAmong(nonISR)
	bestISR := s.bestAmong(isr)

	worst := bestNonISR.cost
	path := bestNonISR.path
	if len(isr) > 0 {
		worst += bestISR.cost + cfg.CallOverheadBytes
		path = append(append([]string{}, bestNonISR.path...), bestISR.path...)
	}

	return Result{
		StackWorstCase:     worst,
		BoundedByHeuristic: diag.BoundedByHeuristic,
		LongestPath:        path,
	}, nil
}

type nodeResult struct {
	cost int
	path []string
}

type solver struct {
	graph *callgraph.Graph
	cfg   config.Config
	sccOf map[string]int
	sccs  map[int]callgraph.SCC
	memo  map[int]nodeResult
	diag  *diagnostics.Diagnostics
}

// bestAmong returns the best (highest-cost) result reachable by starting at
// any of the given root function names.
func (s *solver) bestAmong(roots []string) nodeResult {
	var best nodeResult
	for _, r := range roots {
		id, ok := s.sccOf[r]
		if !ok {
			continue
		}
		res := s.solveSCC(id)
		if res.cost > best.cost {
			best = res
		}
	}
	return best
}

const unknownExternalSCCID = -1

// solveSCC returns the worst-case cost and longest path starting from SCC
// id, memoized since the condensation is a DAG shared across many roots.
func (s *solver) solveSCC(id int) nodeResult {
	if cached, ok := s.memo[id]; ok {
		return cached
	}

	if id == unknownExternalSCCID {
		res := nodeResult{cost: s.cfg.CallOverheadBytes, path: []string{model.UnknownExternal}}
		s.memo[id] = res
		return res
	}

	scc := s.sccs[id]
	multiplier := s.depthMultiplier(scc)
	selfCost := multiplier * s.membersCost(scc)

	var bestChild nodeResult
	haveChild := false
	for _, caller := range scc.Members {
		for _, e := range s.graph.Edges[caller] {
			targetID := s.targetSCCID(e.Callee)
			if targetID == id {
				continue // absorbed into this SCC's own multiplier
			}
			child := s.solveSCC(targetID)
			contribution := child.cost
			if e.Kind == model.EdgeTail && s.isSingleFunctionSCC(targetID) {
				contribution -= s.cfg.CallOverheadBytes // spec §9: tail edge pushes no return address
				if contribution < 0 {
					contribution = 0
				}
			}
			if !haveChild || contribution > bestChild.cost {
				bestChild = nodeResult{cost: contribution, path: child.path}
				haveChild = true
			}
		}
	}

	path := s.pathFor(scc, multiplier)
	if bestChild.path != nil {
		path = append(path, bestChild.path...)
	}

	res := nodeResult{cost: selfCost + bestChild.cost, path: path}
	s.memo[id] = res
	return res
}

// membersCost sums F[v]+O over an SCC's members.
func (s *solver) membersCost(scc callgraph.SCC) int {
	total := 0
	for _, name := range scc.Members {
		fn, _ := s.graph.Functions.ByName(name)
		total += int(fn.Frame) + s.cfg.CallOverheadBytes
	}
	return total
}

func (s *solver) isSingleFunctionSCC(id int) bool {
	if id == unknownExternalSCCID {
		return false
	}
	scc, ok := s.sccs[id]
	return ok && len(scc.Members) == 1 && !scc.NonTrivial
}

// depthMultiplier computes D(SCC) per spec §4.5. Trivial SCCs (ordinary,
// non-recursive nodes) get D=1.
func (s *solver) depthMultiplier(scc callgraph.SCC) int {
	if !scc.NonTrivial {
		return 1
	}
	memberSet := make(map[string]bool, len(scc.Members))
	for _, m := range scc.Members {
		memberSet[m] = true
	}

	var pattern model.RecursionPattern = model.PatternUnknown
	var k int
	found := false
	consistent := true
	for _, m := range scc.Members {
		for _, e := range s.graph.Edges[m] {
			if e.Kind != model.EdgeRecursiveSelf || !memberSet[e.Callee] {
				continue
			}
			if !found {
				pattern, k, found = e.Pattern, e.PatternK, true
				continue
			}
			if e.Pattern != pattern {
				consistent = false
			} else if e.PatternK < k {
				k = e.PatternK // smallest step => largest (most conservative) depth
			}
		}
	}

	if !found || !consistent || pattern == model.PatternUnknown {
		s.diag.BoundedByHeuristic = true
		return s.cfg.UnknownRecursionDepthCap
	}
	d := callgraph.DepthForPattern(pattern, k, s.cfg)
	if d <= 0 {
		s.diag.BoundedByHeuristic = true
		return s.cfg.UnknownRecursionDepthCap
	}
	return d
}

// pathFor renders an SCC's contribution to the longest-path trace: its
// members, repeated `multiplier` times for a recursive SCC so the reported
// path reflects the unrolled worst-case call chain.
func (s *solver) pathFor(scc callgraph.SCC, multiplier int) []string {
	reps := 1
	if scc.NonTrivial {
		reps = multiplier
	}
	path := make([]string, 0, len(scc.Members)*reps)
	for i := 0; i < reps; i++ {
		path = append(path, scc.Members...)
	}
	return path
}

func (s *solver) targetSCCID(callee string) int {
	if callee == model.UnknownExternal {
		return unknownExternalSCCID
	}
	if id, ok := s.sccOf[callee]; ok {
		return id
	}
	return unknownExternalSCCID
}

// indexSCCs computes the graph's SCCs and an index from function name to SCC
// id.
func indexSCCs(g *callgraph.Graph) (map[string]int, map[int]callgraph.SCC) {
	sccs := g.SCCs()
	sccOf := make(map[string]int)
	byID := make(map[int]callgraph.SCC, len(sccs))
	for _, scc := range sccs {
		byID[scc.ID] = scc
		for _, m := range scc.Members {
			sccOf[m] = scc.ID
		}
	}
	return sccOf, byID
}

// reportMissingFrames records a warning for every reachable function with no
// frame-size entry (spec §7, Missing-frame), reachability determined by a
// plain depth-first walk over the graph from all roots.
func reportMissingFrames(g *callgraph.Graph, diag *diagnostics.Diagnostics) {
	visited := make(map[string]bool)
	queue := append([]string{}, g.Roots...)
	for len(queue) > 0 {
		name := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[name] || name == model.UnknownExternal {
			continue
		}
		visited[name] = true
		for _, e := range g.Edges[name] {
			queue = append(queue, e.Callee)
		}
	}
	names := make([]string, 0, len(visited))
	for name := range visited {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fn, ok := g.Functions.ByName(name)
		if !ok || fn.FrameKnown {
			continue
		}
		diag.MissingFrames++
		diag.Warnings = append(diag.Warnings, "missing frame size for "+name+"; treated as 0 bytes")
	}
}
