package callgraph

import (
	"fmt"

	"github.com/emicklei/dot"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/model"
)

// DOT renders the call graph in Graphviz DOT format, annotating each
// function with its frame size and each non-trivial SCC with a shared
// cluster color.
func (g *Graph) DOT() string {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "LR")

	sccOf := make(map[string]int)
	for _, scc := range g.SCCs() {
		if !scc.NonTrivial {
			continue
		}
		for _, m := range scc.Members {
			sccOf[m] = scc.ID
		}
	}

	nodes := make(map[string]dot.Node)
	node := func(name string) dot.Node {
		if n, ok := nodes[name]; ok {
			return n
		}
		label := name
		if fn, ok := g.Functions.ByName(name); ok {
			label = fmt.Sprintf("%s\\nframe=%d", name, fn.Frame)
		}
		n := graph.Node(name).Label(label)
		if id, ok := sccOf[name]; ok {
			n.Attr("style", "filled").Attr("fillcolor", sccColor(id))
		}
		if name == model.UnknownExternal {
			n.Attr("shape", "octagon")
		}
		nodes[name] = n
		return n
	}

	for _, fn := range g.Functions.All() {
		n := node(fn.Name)
		if fn.Kind == model.KindEntry || fn.Kind == model.KindInterruptHandler {
			n.Attr("peripheries", "2")
		}
	}

	for _, caller := range g.Functions.All() {
		for _, e := range g.Edges[caller.Name] {
			edge := graph.Edge(node(e.Caller), node(e.Callee)).Label(e.Kind.String())
			if e.Kind == model.EdgeRecursiveSelf && e.Pattern != model.PatternUnknown {
				edge.Label(fmt.Sprintf("%s(%d)", e.Kind.String(), e.PatternK))
			}
		}
	}

	return graph.String()
}

var sccPalette = []string{"#fde0dc", "#d7e8fc", "#e3f7d3", "#fdf0c8", "#ecd9f7"}

func sccColor(id int) string {
	return sccPalette[id%len(sccPalette)]
}
