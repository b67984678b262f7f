// Package framesize builds the per-function local frame size table from the
// compiler's stack-usage listing (spec §4.1).
package framesize

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/canon"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/diagnostics"
)

// Qualifier is the third field of a stack-usage listing line.
type Qualifier string

const (
	Static  Qualifier = "static"
	Dynamic Qualifier = "dynamic"
	Bounded Qualifier = "bounded"
)

// Entry is one function's resolved frame-size information.
type Entry struct {
	Bytes     uint32
	Qualifier Qualifier
}

// Table maps canonical function name to its resolved Entry.
type Table map[string]Entry

// line matches "<path>:<line>:<col>:<function>\t<bytes>\t<qualifier>".
var line = regexp.MustCompile(`^[^:]*:\d+:\d+:(.+)\t(\d+)\t(static|dynamic|bounded)$`)

// Parse reads one stack-usage listing and returns the resolved frame table.
// Malformed lines are skipped and recorded as warnings (Recoverable-parse);
// an unreadable reader is fatal.
func Parse(r io.Reader, diag *diagnostics.Diagnostics) (Table, error) {
	table := make(Table)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		m := line.FindStringSubmatch(text)
		if m == nil {
			diag.Warnings = append(diag.Warnings, fmt.Sprintf("frame-size listing: malformed line %d: %q", lineNo, text))
			diag.RecoverableParseErrs++
			continue
		}
		name := canon.Name(strings.TrimSpace(m[1]))
		bytes, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			diag.Warnings = append(diag.Warnings, fmt.Sprintf("frame-size listing: bad byte count on line %d: %q", lineNo, text))
			diag.RecoverableParseErrs++
			continue
		}
		qualifier := Qualifier(m[3])
		merge(table, name, uint32(bytes), qualifier)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "frame-size listing: read failed")
	}
	return table, nil
}

// merge resolves duplicate entries for the same name by taking the maximum
// byte count (spec §4.1). If either contributing entry was dynamic, the
// merged entry is dynamic: a dynamic frame is a floor, so the combined bound
// can be no less uncertain than its most uncertain contributor.
func merge(table Table, name string, bytes uint32, qualifier Qualifier) {
	existing, ok := table[name]
	if !ok {
		table[name] = Entry{Bytes: bytes, Qualifier: qualifier}
		return
	}
	merged := existing
	if bytes > merged.Bytes {
		merged.Bytes = bytes
	}
	if qualifier == Dynamic {
		merged.Qualifier = Dynamic
	}
	table[name] = merged
}

// ParseAll merges any number of listings (spec §4.1 allows "one or more").
func ParseAll(readers []io.Reader, diag *diagnostics.Diagnostics) (Table, error) {
	combined := make(Table)
	for i, r := range readers {
		t, err := Parse(r, diag)
		if err != nil {
			return nil, errors.Wrapf(err, "frame-size listing %d", i)
		}
		for name, entry := range t {
			merge(combined, name, entry.Bytes, entry.Qualifier)
		}
	}
	return combined, nil
}
