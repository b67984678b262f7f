package callgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/config"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/diagnostics"
)

func TestDOT_DirectCallIncludesFrameLabelsAndEdge(t *testing.T) {
	listing := "Disassembly of section .text:\n\n" +
		"00000000 <main>:\n 0:\t0e 94 00 00 \tcall\t0x8 ; 0x8 <blink>\n 4:\t08 95       \tret\n\n" +
		"00000008 <blink>:\n 8:\t08 95       \tret\n"
	frames := "m.c:1:1:main\t2\tstatic\nm.c:2:1:blink\t0\tstatic\n"
	table, frameTable := parseFixture(t, listing, frames)

	diag := diagnostics.New()
	cfg := config.Default("atmega328p")
	g := Build(table, frameTable, cfg, diag)

	out := g.DOT()
	require.Contains(t, out, "digraph")
	require.Contains(t, out, "main")
	require.Contains(t, out, "blink")
	require.Contains(t, out, "frame=2")
	require.Contains(t, out, "direct")
}

func TestDOT_RecursiveSelfLoopLabelsPattern(t *testing.T) {
	listing := "Disassembly of section .text:\n\n" +
		"00000000 <countdown>:\n" +
		" 0:\t01 50       \tsubi\tr24, 0x01\n" +
		" 2:\t0e 94 00 00 \trcall\t0x0 ; 0x0 <countdown>\n" +
		" 6:\t08 95       \tret\n"
	frames := "m.c:1:1:countdown\t2\tstatic\n"
	table, frameTable := parseFixture(t, listing, frames)

	diag := diagnostics.New()
	cfg := config.Default("atmega328p")
	g := Build(table, frameTable, cfg, diag)

	out := g.DOT()
	require.Contains(t, out, "recursive-self(1)")
}

func TestDOT_UnknownExternalGetsOctagonShape(t *testing.T) {
	listing := "Disassembly of section .text:\n\n" +
		"00000000 <dispatch>:\n 0:\t09 95\ticall\n"
	frames := "m.c:1:1:dispatch\t2\tstatic\n"
	table, frameTable := parseFixture(t, listing, frames)

	diag := diagnostics.New()
	cfg := config.Default("atmega328p")
	g := Build(table, frameTable, cfg, diag)

	out := g.DOT()
	require.Contains(t, out, "octagon")
}
