package callgraph

import (
	"math"
	"strconv"
	"strings"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/config"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/model"
)

// classificationWindow bounds how far back from a recursive call site the
// classifier looks for an argument-reduction pattern (spec §4.3: "the
// instructions immediately preceding the call site").
const classificationWindow = 6

// classifyRecursion fills in Pattern/PatternK for every recursive-self edge
// by scanning the instructions immediately preceding the call site (spec
// §4.3). Classification does not depend on configuration; depth-bound
// computation from the pattern happens later, in the solver.
func classifyRecursion(g *Graph) {
	for caller, edges := range g.Edges {
		fn, ok := g.Functions.ByName(caller)
		if !ok {
			continue
		}
		for i := range edges {
			if edges[i].Kind != model.EdgeRecursiveSelf {
				continue
			}
			siteIdx := indexOfAddress(fn.Instructions, edges[i].SiteAddr)
			if siteIdx < 0 {
				continue
			}
			pattern, k := classifyAt(fn.Instructions, siteIdx)
			edges[i].Pattern = pattern
			edges[i].PatternK = k
		}
	}
}

func indexOfAddress(instructions []model.Instruction, addr uint32) int {
	for i, insn := range instructions {
		if insn.Address == addr {
			return i
		}
	}
	return -1
}

type candidate struct {
	pattern model.RecursionPattern
	k       int
}

// classifyAt examines the window of instructions preceding instructions[idx]
// (the call site itself) and returns the best-matching recursion pattern.
// "Best" means largest depth bound under the default 8-bit domain (U=255),
// which is spec §4.3's "prefer the one with the largest depth reduction"
// tie-break made concrete.
func classifyAt(instructions []model.Instruction, idx int) (model.RecursionPattern, int) {
	start := idx - classificationWindow
	if start < 0 {
		start = 0
	}
	window := instructions[start:idx]

	var candidates []candidate
	if k, ok := findMinusK(window); ok {
		candidates = append(candidates, candidate{model.PatternMinusK, k})
	}
	if k, ok := findDivK(window); ok {
		candidates = append(candidates, candidate{model.PatternDivK, k})
	}
	if k, ok := findShiftK(window); ok {
		candidates = append(candidates, candidate{model.PatternShiftK, k})
	}
	if len(candidates) == 0 {
		return model.PatternUnknown, 0
	}

	const defaultU = 255
	best := candidates[0]
	bestDepth := depthFor(best.pattern, best.k, defaultU, 8)
	for _, c := range candidates[1:] {
		d := depthFor(c.pattern, c.k, defaultU, 8)
		if d > bestDepth {
			best, bestDepth = c, d
		}
	}
	return best.pattern, best.k
}

// depthFor mirrors the solver's D(SCC) formulas (spec §4.5) so the
// classifier's tie-break uses the same arithmetic the solver will apply.
func depthFor(pattern model.RecursionPattern, k, u, bits int) int {
	if k <= 0 {
		return 0
	}
	switch pattern {
	case model.PatternMinusK:
		return int(math.Ceil(float64(u)/float64(k))) + 1
	case model.PatternDivK:
		if k < 2 {
			return 0
		}
		return int(math.Ceil(math.Log(float64(u))/math.Log(float64(k)))) + 1
	case model.PatternShiftK:
		return int(math.Ceil(float64(bits)/float64(k))) + 1
	default:
		return 0
	}
}

// findMinusK looks for "subi"/"sbiw" with an immediate constant operand.
func findMinusK(window []model.Instruction) (int, bool) {
	for i := len(window) - 1; i >= 0; i-- {
		insn := window[i]
		if insn.Mnemonic != "subi" && insn.Mnemonic != "sbiw" {
			continue
		}
		if len(insn.Operands) < 2 {
			continue
		}
		if k, ok := parseImmediate(insn.Operands[len(insn.Operands)-1]); ok && k > 0 {
			return k, true
		}
	}
	return 0, false
}

// findDivK looks for a call to an avr-libc division/modulo runtime helper,
// preceded by an "ldi" loading the constant divisor.
func findDivK(window []model.Instruction) (int, bool) {
	for i, insn := range window {
		if insn.Mnemonic != "call" && insn.Mnemonic != "rcall" {
			continue
		}
		calleeNames := namesReferenced(insn)
		isDivHelper := false
		for _, name := range calleeNames {
			if divHelper.MatchString(name) {
				isDivHelper = true
				break
			}
		}
		if !isDivHelper {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if window[j].Mnemonic != "ldi" || len(window[j].Operands) < 2 {
				continue
			}
			if k, ok := parseImmediate(window[j].Operands[len(window[j].Operands)-1]); ok && k > 1 {
				return k, true
			}
		}
	}
	return 0, false
}

// findShiftK counts a contiguous run of asr/lsr instructions ending at the
// end of the window (i.e. immediately before the recursive call).
func findShiftK(window []model.Instruction) (int, bool) {
	count := 0
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Mnemonic == "asr" || window[i].Mnemonic == "lsr" {
			count++
			continue
		}
		break
	}
	if count == 0 {
		return 0, false
	}
	return count, true
}

func parseImmediate(operand string) (int, bool) {
	s := strings.TrimSpace(operand)
	s = strings.TrimPrefix(s, "#")
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 32)
		if err != nil {
			return 0, false
		}
		return int(v), true
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// DepthForPattern exposes depthFor to the solver package so the bound
// computed there stays in lock-step with the classifier's own tie-break
// arithmetic; config supplies the domain U in place of the classifier's
// default, while the shift_k bit width stays fixed at 8.
func DepthForPattern(pattern model.RecursionPattern, k int, cfg config.Config) int {
	return depthFor(pattern, k, cfg.ArgumentDomainDefault, 8)
}
