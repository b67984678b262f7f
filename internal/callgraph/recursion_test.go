package callgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/config"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/model"
)

// TestDepthForPattern_Formulas checks the three closed-form depth bounds from
// spec §4.5 against small, hand-computable domains (rather than the default
// U=255, which produces depths too large to eyeball).
func TestDepthForPattern_Formulas(t *testing.T) {
	tests := []struct {
		name    string
		pattern model.RecursionPattern
		k       int
		u       int
		want    int
	}{
		{"minus_1 over U=5", model.PatternMinusK, 1, 5, 6},   // ceil(5/1)+1
		{"minus_3 over U=13", model.PatternMinusK, 3, 13, 6}, // ceil(13/3)+1 = 5+1
		{"div_2 over U=17", model.PatternDivK, 2, 17, 6}, // ceil(log2(17))+1 = 5+1
		{"shift_1 over 8 bits", model.PatternShiftK, 1, 0, 9},
		{"shift_3 over 8 bits", model.PatternShiftK, 3, 0, 4},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default("atmega328p")
			cfg.ArgumentDomainDefault = tc.u
			got := DepthForPattern(tc.pattern, tc.k, cfg)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestClassifyAt_MinusK(t *testing.T) {
	instructions := []model.Instruction{
		{Address: 0, Mnemonic: "push", Operands: []string{"r17"}},
		{Address: 2, Mnemonic: "subi", Operands: []string{"r24", "0x01"}},
		{Address: 4, Mnemonic: "rcall", Operands: []string{"0x0"}}, // the recursive call itself
	}
	pattern, k := classifyAt(instructions, 2)
	require.Equal(t, model.PatternMinusK, pattern)
	require.Equal(t, 1, k)
}

func TestClassifyAt_ShiftK_CountsContiguousRun(t *testing.T) {
	instructions := []model.Instruction{
		{Address: 0, Mnemonic: "asr", Operands: []string{"r24"}},
		{Address: 2, Mnemonic: "asr", Operands: []string{"r24"}},
		{Address: 4, Mnemonic: "asr", Operands: []string{"r24"}},
		{Address: 6, Mnemonic: "rcall", Operands: []string{"0x0"}},
	}
	pattern, k := classifyAt(instructions, 3)
	require.Equal(t, model.PatternShiftK, pattern)
	require.Equal(t, 3, k)
}

func TestClassifyAt_NoPattern_IsUnknown(t *testing.T) {
	instructions := []model.Instruction{
		{Address: 0, Mnemonic: "nop"},
		{Address: 2, Mnemonic: "rcall", Operands: []string{"0x0"}},
	}
	pattern, k := classifyAt(instructions, 1)
	require.Equal(t, model.PatternUnknown, pattern)
	require.Equal(t, 0, k)
}
