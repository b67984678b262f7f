package callgraph

import (
	"sort"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/model"
)

// SCC is a strongly-connected component of the call graph. NonTrivial is
// true when the component represents direct or mutual recursion: more than
// one member, or a single member with a self-loop edge (spec GLOSSARY:
// "SCC").
type SCC struct {
	ID         int
	Members    []string
	NonTrivial bool
}

// tarjan state for one run of Tarjan's strongly-connected-components
// algorithm over g's adjacency.
type tarjan struct {
	graph   *Graph
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	sccs    []SCC
}

// SCCs computes the graph's strongly-connected components via Tarjan's
// algorithm (spec §4.5: "Compute SCCs via a standard linear algorithm"),
// iterating functions in entry-address order for determinism (spec §5).
func (g *Graph) SCCs() []SCC {
	t := &tarjan{
		graph:   g,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, fn := range g.Functions.All() {
		if _, visited := t.index[fn.Name]; !visited {
			t.strongConnect(fn.Name)
		}
	}
	return t.sccs
}

func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	neighbors := t.graph.Edges[v]
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Callee < neighbors[j].Callee })
	selfLoop := false
	for _, e := range neighbors {
		w := e.Callee
		if w == v {
			selfLoop = true
		}
		if w == model.UnknownExternal {
			continue
		}
		if _, ok := t.graph.Functions.ByName(w); !ok {
			continue // callee never reached the table (shouldn't happen, defensive)
		}
		if _, visited := t.index[w]; !visited {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}
	var members []string
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		members = append(members, w)
		if w == v {
			break
		}
	}
	sort.Strings(members)
	t.sccs = append(t.sccs, SCC{
		ID:         len(t.sccs),
		Members:    members,
		NonTrivial: len(members) > 1 || selfLoop,
	})
}
