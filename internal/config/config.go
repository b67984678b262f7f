// Package config defines the analyzer's configuration record (spec §6 item
// 4) and the per-MCU defaults used to populate it. Configuration can be
// built directly by the CLI from flags, or decoded from a TOML document via
// mapstructure so both sources feed the same struct.
package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Config mirrors spec.md §6 item 4 verbatim.
type Config struct {
	MCU                      string `mapstructure:"mcu"`
	RAMTotal                 int    `mapstructure:"ram_total"`
	CallOverheadBytes        int    `mapstructure:"call_overhead_bytes"`
	ArgumentDomainDefault    int    `mapstructure:"argument_domain_default"`
	UnknownRecursionDepthCap int    `mapstructure:"unknown_recursion_depth_cap"`
	ISRNamingPattern         string `mapstructure:"isr_naming_pattern"`

	// EntryPoints names additional root functions beyond "main", for
	// binaries with more than one interrupt-free entry point.
	EntryPoints []string `mapstructure:"entry_points"`
}

// mcuDefault holds the subset of Config that varies by target MCU.
type mcuDefault struct {
	ramTotal          int
	callOverheadBytes int
}

// knownMCUs covers the devices named across the AVR 8-bit family that this
// analyzer targets. 16-bit PC devices push 2 bytes per call; the two
// listed 22-bit PC devices (large flash, e.g. atmega2560) push 3.
var knownMCUs = map[string]mcuDefault{
	"atmega328p": {ramTotal: 2048, callOverheadBytes: 2},
	"atmega168":  {ramTotal: 1024, callOverheadBytes: 2},
	"atmega32u4": {ramTotal: 2560, callOverheadBytes: 2},
	"atmega2560": {ramTotal: 8192, callOverheadBytes: 3},
	"atmega1280": {ramTotal: 8192, callOverheadBytes: 3},
	"attiny85":   {ramTotal: 512, callOverheadBytes: 2},
}

// Default returns a Config seeded with defaults for mcu. If mcu is unknown,
// it falls back to the 16-bit-PC defaults (2-byte call overhead) and a
// ram_total of 0, which the caller is expected to override explicitly —
// an unset RAM size is a configuration error the CLI validates before
// running the pipeline.
func Default(mcu string) Config {
	d, ok := knownMCUs[mcu]
	if !ok {
		d = mcuDefault{callOverheadBytes: 2}
	}
	return Config{
		MCU:                      mcu,
		RAMTotal:                 d.ramTotal,
		CallOverheadBytes:        d.callOverheadBytes,
		ArgumentDomainDefault:    255,
		UnknownRecursionDepthCap: 32,
		ISRNamingPattern:         "__vector_",
	}
}

// Decode merges raw (as parsed from a TOML/JSON document) on top of a
// per-MCU default, using mapstructure so the Config struct tags name the
// document's keys. Flag-only configuration does not pass through Decode; the
// CLI builds it from Default directly.
func Decode(raw map[string]any) (Config, error) {
	mcu, _ := raw["mcu"].(string)
	cfg := Default(mcu)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, fmt.Errorf("config: building decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("config: decoding: %w", err)
	}
	return cfg, nil
}

// Validate reports the first configuration error found, if any. The solver
// assumes a validated Config and does not re-check these.
func (c Config) Validate() error {
	if c.RAMTotal <= 0 {
		return fmt.Errorf("config: ram_total must be positive, got %d", c.RAMTotal)
	}
	if c.CallOverheadBytes <= 0 {
		return fmt.Errorf("config: call_overhead_bytes must be positive, got %d", c.CallOverheadBytes)
	}
	if c.ArgumentDomainDefault <= 0 {
		return fmt.Errorf("config: argument_domain_default must be positive, got %d", c.ArgumentDomainDefault)
	}
	if c.UnknownRecursionDepthCap <= 0 {
		return fmt.Errorf("config: unknown_recursion_depth_cap must be positive, got %d", c.UnknownRecursionDepthCap)
	}
	if c.ISRNamingPattern == "" {
		return fmt.Errorf("config: isr_naming_pattern must not be empty")
	}
	return nil
}
