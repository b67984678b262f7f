package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_KnownMCU(t *testing.T) {
	cfg := Default("atmega328p")
	require.Equal(t, 2048, cfg.RAMTotal)
	require.Equal(t, 2, cfg.CallOverheadBytes)
	require.Equal(t, 255, cfg.ArgumentDomainDefault)
	require.Equal(t, "__vector_", cfg.ISRNamingPattern)
}

func TestDefault_UnknownMCU_FallsBackTo16BitPC(t *testing.T) {
	cfg := Default("some-future-mcu")
	require.Equal(t, 0, cfg.RAMTotal)
	require.Equal(t, 2, cfg.CallOverheadBytes)
}

func TestDefault_22BitPCDevices(t *testing.T) {
	for _, mcu := range []string{"atmega2560", "atmega1280"} {
		cfg := Default(mcu)
		require.Equal(t, 3, cfg.CallOverheadBytes, mcu)
	}
}

func TestDecode_OverridesDefaultsAndKeepsUnset(t *testing.T) {
	raw := map[string]any{
		"mcu":                 "atmega328p",
		"ram_total":           4096,
		"call_overhead_bytes": "5", // WeaklyTypedInput: string coerces to int
	}
	cfg, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "atmega328p", cfg.MCU)
	require.Equal(t, 4096, cfg.RAMTotal)
	require.Equal(t, 5, cfg.CallOverheadBytes)
	require.Equal(t, 255, cfg.ArgumentDomainDefault, "unset fields keep the MCU default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid default", mutate: func(c *Config) {}, wantErr: false},
		{name: "zero ram_total", mutate: func(c *Config) { c.RAMTotal = 0 }, wantErr: true},
		{name: "zero call_overhead_bytes", mutate: func(c *Config) { c.CallOverheadBytes = 0 }, wantErr: true},
		{name: "zero argument_domain_default", mutate: func(c *Config) { c.ArgumentDomainDefault = 0 }, wantErr: true},
		{name: "zero unknown_recursion_depth_cap", mutate: func(c *Config) { c.UnknownRecursionDepthCap = 0 }, wantErr: true},
		{name: "empty isr_naming_pattern", mutate: func(c *Config) { c.ISRNamingPattern = "" }, wantErr: true},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default("atmega328p")
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
