// Package sections parses the section-size summary (spec §4.4) produced by
// the toolchain's `size` utility: one data line of whitespace-separated
// integers "text data bss dec hex filename", optionally preceded by a
// header line that is tolerated and skipped.
package sections

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Sizes holds the byte counts this analyzer needs from the summary.
type Sizes struct {
	Text int
	Data int
	BSS  int
}

// Parse reads a section-size summary and extracts Data and BSS (and Text,
// which the report does not include). Missing or malformed input is
// fatal (spec §4.4).
func Parse(r io.Reader) (Sizes, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		text, err1 := strconv.Atoi(fields[0])
		data, err2 := strconv.Atoi(fields[1])
		bss, err3 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			continue // header line ("text data bss dec hex filename"): tolerated, skipped
		}
		return Sizes{Text: text, Data: data, BSS: bss}, nil
	}
	if err := scanner.Err(); err != nil {
		return Sizes{}, errors.Wrap(err, "section-size summary: read failed")
	}
	return Sizes{}, errors.New("section-size summary: no data line found")
}
