package disasm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/diagnostics"
)

const sampleListing = `
Disassembly of section .text:

00000100 <main>:
 100:	0e 94 20 00 	call	0x40 ; 0x40 <blink>
 104:	08 95       	ret

00000040 <blink>:
  40:	1f 93       	push	r17
  42:	08 95       	ret

Disassembly of section .data:

00001000 <some_global>:
  1000:	00 00       	.word	0x0000
`

func TestParse_BasicListing(t *testing.T) {
	diag := diagnostics.New()
	table, err := Parse(strings.NewReader(sampleListing), diag)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	main, ok := table.ByName("main")
	require.True(t, ok)
	require.Equal(t, uint32(0x100), main.Entry)
	require.Len(t, main.Instructions, 2)
	require.Equal(t, "call", main.Instructions[0].Mnemonic)
	require.Equal(t, []string{"0x40"}, main.Instructions[0].Operands)
	require.Equal(t, "0x40 <blink>", main.Instructions[0].Comment)

	_, ok = table.ByName("some_global")
	require.False(t, ok, ".data section must not be scanned")
}

func TestParse_NoSymbols_IsFatal(t *testing.T) {
	diag := diagnostics.New()
	_, err := Parse(strings.NewReader("Disassembly of section .data:\n"), diag)
	require.ErrorIs(t, err, ErrNoSymbols)
}

func TestParse_UnrecognizedLineWarns(t *testing.T) {
	listing := "Disassembly of section .text:\n\n00000000 <main>:\nnonsense garbage line\n"
	diag := diagnostics.New()
	table, err := Parse(strings.NewReader(listing), diag)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	require.Equal(t, 1, diag.RecoverableParseErrs)
}

func TestParse_CanonicalizesCloneSuffix(t *testing.T) {
	listing := "Disassembly of section .text:\n\n00000000 <foo.isra.0>:\n 0:\t00 00\tret\n"
	diag := diagnostics.New()
	table, err := Parse(strings.NewReader(listing), diag)
	require.NoError(t, err)
	_, ok := table.ByName("foo")
	require.True(t, ok)
}
