package framesize

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/diagnostics"
)

func TestParse_BasicLines(t *testing.T) {
	input := "main.c:10:1:main\t12\tstatic\n" +
		"main.c:20:1:blink\t4\tstatic\n" +
		"main.c:30:1:readAdc\t0\tdynamic\n"

	diag := diagnostics.New()
	table, err := Parse(strings.NewReader(input), diag)
	require.NoError(t, err)
	require.Equal(t, Entry{Bytes: 12, Qualifier: Static}, table["main"])
	require.Equal(t, Entry{Bytes: 4, Qualifier: Static}, table["blink"])
	require.Equal(t, Entry{Bytes: 0, Qualifier: Dynamic}, table["readAdc"])
	require.Empty(t, diag.Warnings)
}

func TestParse_CanonicalizesCloneSuffixes(t *testing.T) {
	input := "main.c:10:1:helper.isra.0\t8\tstatic\n"
	diag := diagnostics.New()
	table, err := Parse(strings.NewReader(input), diag)
	require.NoError(t, err)
	_, ok := table["helper"]
	require.True(t, ok)
}

func TestParse_MalformedLineWarnsAndContinues(t *testing.T) {
	input := "not a valid line at all\n" +
		"main.c:10:1:main\t12\tstatic\n"
	diag := diagnostics.New()
	table, err := Parse(strings.NewReader(input), diag)
	require.NoError(t, err)
	require.Equal(t, uint32(12), table["main"].Bytes)
	require.Equal(t, 1, diag.RecoverableParseErrs)
	require.Len(t, diag.Warnings, 1)
}

func TestMerge_MaxBytesAndDynamicDominates(t *testing.T) {
	input := "a.c:1:1:foo\t4\tstatic\n" +
		"b.c:1:1:foo\t10\tdynamic\n" +
		"c.c:1:1:foo\t2\tstatic\n"
	diag := diagnostics.New()
	table, err := Parse(strings.NewReader(input), diag)
	require.NoError(t, err)
	require.Equal(t, Entry{Bytes: 10, Qualifier: Dynamic}, table["foo"])
}

func TestParseAll_MergesAcrossReaders(t *testing.T) {
	readers := []io.Reader{
		strings.NewReader("a.c:1:1:foo\t4\tstatic\n"),
		strings.NewReader("b.c:1:1:foo\t9\tstatic\n"),
		strings.NewReader("c.c:1:1:bar\t2\tstatic\n"),
	}
	diag := diagnostics.New()
	table, err := ParseAll(readers, diag)
	require.NoError(t, err)
	require.Equal(t, uint32(9), table["foo"].Bytes)
	require.Equal(t, uint32(2), table["bar"].Bytes)
}
