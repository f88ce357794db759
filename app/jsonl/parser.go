package jsonl

import (
	"strings"

	"jsonlview/app/interfaces"

	"github.com/ohler55/ojg/oj"
)

// Line parsing for JSONL documents. Each physical line yields exactly one
// ParsedLine; blank lines and malformed lines keep their slot so line
// numbering stays aligned with the file.

// ParseLine parses one physical line of a JSONL document.
//
//   - A whitespace-only line yields Blank=true with no row and no error.
//   - A line that fails JSON parsing yields the parser's diagnostic in Err
//     with the raw content preserved verbatim.
//   - A successfully parsed line yields a Row. The row's canonical index is
//     assigned by the caller when the row is appended to the store.
//
// On success the row's field paths are counted into counts, so schema
// inference never has to re-traverse rows. No failure escapes as an error;
// everything degrades to an error-tagged ParsedLine.
func ParseLine(lineNumber int, raw string, counts *PathCounts) interfaces.ParsedLine {
	line := interfaces.ParsedLine{
		LineNumber: lineNumber,
		Raw:        raw,
	}

	if strings.TrimSpace(raw) == "" {
		line.Blank = true
		return line
	}

	value, err := oj.ParseString(raw)
	if err != nil {
		line.Err = err.Error()
		return line
	}

	line.Row = &interfaces.Row{Index: -1, Value: value}
	if counts != nil {
		counts.CountRow(value)
	}
	return line
}
