package sections

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_WithHeaderLine(t *testing.T) {
	input := "   text\t   data\t    bss\t    dec\t    hex\tfilename\n" +
		"    120\t     10\t     20\t    150\t     96\tfirmware.elf\n"

	sizes, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, Sizes{Text: 120, Data: 10, BSS: 20}, sizes)
}

func TestParse_NoHeaderLine(t *testing.T) {
	sizes, err := Parse(strings.NewReader("0\t356\t0\t356\t164\tfirmware.elf\n"))
	require.NoError(t, err)
	require.Equal(t, Sizes{Text: 0, Data: 356, BSS: 0}, sizes)
}

func TestParse_BlankLinesTolerated(t *testing.T) {
	input := "\n\n   text\t   data\t    bss\t    dec\t    hex\tfilename\n" +
		"\n      0\t      4\t      8\t     12\t      c\tfirmware.elf\n"

	sizes, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, Sizes{Text: 0, Data: 4, BSS: 8}, sizes)
}

func TestParse_NoDataLine_IsFatal(t *testing.T) {
	_, err := Parse(strings.NewReader("   text\t   data\t    bss\t    dec\t    hex\tfilename\n"))
	require.Error(t, err)
}

func TestParse_Empty_IsFatal(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
}
