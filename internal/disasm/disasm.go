// Package disasm parses an objdump-style AVR disassembly listing into an
// ordered set of per-function instruction blocks (spec §4.2).
package disasm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/canon"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/diagnostics"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/model"
)

// ErrNoSymbols is returned when a listing contains no parseable symbols at
// all (spec §4.2's fatal-input condition).
var ErrNoSymbols = errors.New("disassembly: no symbols parsed")

// scannable reports the code sections the parser descends into (spec
// §6 item 2). Anything else (.data, .bss, .eeprom, ...) is skipped entirely
// until the next "Disassembly of section" header.
func scannable(section string) bool {
	switch {
	case section == ".text", section == ".init*", section == ".vectors":
		return true
	case strings.HasPrefix(section, ".text."):
		return true
	case strings.HasPrefix(section, ".init"):
		return true
	default:
		return false
	}
}

// Parse reads an objdump-style disassembly listing and returns the parsed
// functions, already sorted by entry address (Parse calls Table.Finalize).
// A symbol whose canonical name is already in the table continues that
// function's instruction block rather than adding a second entry. No symbols
// parsed at all is fatal (spec §4.2).
func Parse(r io.Reader, diag *diagnostics.Diagnostics) (*model.Table, error) {
	table := model.NewTable()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var current *model.Function
	inScannableSection := true // some listings omit the "Disassembly of section" header entirely
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if text == "" {
			continue
		}

		if section, ok := parseSectionHeader(text); ok {
			inScannableSection = scannable(section)
			current = nil
			continue
		}

		if !inScannableSection {
			continue
		}

		if addr, name, ok := parseSymbolHeader(text); ok {
			if existing, dup := table.ByName(canon.Name(name)); dup {
				current = existing // a clone of an already-seen function: one entry per canonical name
				continue
			}
			fn := &model.Function{
				Name:  canon.Name(name),
				Entry: addr,
				Kind:  model.KindNormal,
			}
			table.Add(fn)
			current = fn
			continue
		}

		if current == nil {
			continue // e.g. blank-line-separated preamble before first symbol
		}

		if insn, ok := parseInstructionLine(text); ok {
			current.Instructions = append(current.Instructions, insn)
			continue
		}

		// Anything else on a non-empty line inside a function block that
		// isn't recognized is a discarded (Recoverable-parse) line, unless
		// it is clearly disassembler noise (e.g. "...") which we ignore
		// silently.
		if text == "..." || strings.HasPrefix(text, "\t...") {
			continue
		}
		diag.RecoverableParseErrs++
		diag.Warnings = append(diag.Warnings, fmt.Sprintf("disassembly: unrecognized line %d: %q", lineNo, text))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "disassembly: read failed")
	}
	if table.Len() == 0 {
		return nil, ErrNoSymbols
	}
	table.Finalize()
	return table, nil
}

// parseSectionHeader matches "Disassembly of section <name>:".
func parseSectionHeader(text string) (section string, ok bool) {
	const prefix = "Disassembly of section "
	if !strings.HasPrefix(text, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(text, prefix)
	rest = strings.TrimSuffix(rest, ":")
	return strings.TrimSpace(rest), true
}

// parseSymbolHeader matches "<hex-address> <<name>>:", e.g.
// "00000100 <main>:".
func parseSymbolHeader(text string) (addr uint32, name string, ok bool) {
	trimmed := strings.TrimRight(text, ":")
	if trimmed == text { // no trailing colon
		return 0, "", false
	}
	fields := strings.SplitN(trimmed, " ", 2)
	if len(fields) != 2 {
		return 0, "", false
	}
	hexAddr, nameField := fields[0], fields[1]
	if !strings.HasPrefix(nameField, "<") || !strings.HasSuffix(nameField, ">") {
		return 0, "", false
	}
	a, err := strconv.ParseUint(hexAddr, 16, 32)
	if err != nil {
		return 0, "", false
	}
	return uint32(a), nameField[1 : len(nameField)-1], true
}

// parseInstructionLine matches
// "<hex-address>:\t<hex bytes>\t<mnemonic>\t<operands>[\t; <comment>]".
func parseInstructionLine(text string) (model.Instruction, bool) {
	colon := strings.IndexByte(text, ':')
	if colon < 0 {
		return model.Instruction{}, false
	}
	addrField := strings.TrimSpace(text[:colon])
	addr, err := strconv.ParseUint(addrField, 16, 32)
	if err != nil {
		return model.Instruction{}, false
	}
	rest := text[colon+1:]
	fields := strings.Split(rest, "\t")
	// fields[0] is always empty (the tab right after ':'); objdump layout is
	// "<addr>:\t<bytes>\t<mnemonic>\t<operands>".
	var trimmed []string
	for _, f := range fields {
		if f == "" {
			continue
		}
		trimmed = append(trimmed, f)
	}
	if len(trimmed) < 2 {
		return model.Instruction{}, false
	}
	// trimmed[0] is the raw opcode bytes, which this analyzer never needs.
	mnemonicAndOperands := trimmed[1:]
	mnemonic := strings.ToLower(strings.TrimSpace(mnemonicAndOperands[0]))

	var operandText, comment string
	if len(mnemonicAndOperands) > 1 {
		operandText = strings.TrimSpace(mnemonicAndOperands[1])
	}
	if idx := strings.Index(operandText, "; "); idx >= 0 {
		comment = strings.TrimSpace(operandText[idx+2:])
		operandText = strings.TrimSpace(operandText[:idx])
	}
	var operands []string
	if operandText != "" {
		for _, op := range strings.Split(operandText, ",") {
			operands = append(operands, strings.TrimSpace(op))
		}
	}
	return model.Instruction{
		Address:  uint32(addr),
		Mnemonic: mnemonic,
		Operands: operands,
		Comment:  comment,
	}, true
}
