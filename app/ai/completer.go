package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"jsonlview/app/interfaces"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// AI column support. The provider itself is opaque: anything satisfying
// Completer can back a run, the core only builds prompts from row data and
// routes results back through the document facade. Batch runs are per-row
// fire-and-forget; one row's failure never blocks the others.

// Completer is the full contract an AI provider must satisfy.
type Completer func(ctx context.Context, prompt string) (string, error)

// placeholderPattern matches {$...} JSONPath placeholders in a prompt
// template, e.g. "Summarize {$.title} by {$.author.name}".
var placeholderPattern = regexp.MustCompile(`\{(\$[^{}]*)\}`)

// BuildPrompt expands the JSONPath placeholders of a template against one
// row's value. A placeholder that fails to parse or resolves to nothing
// expands to the empty string. The literal placeholder {row} expands to
// the row's full serialized form.
func BuildPrompt(template string, row *interfaces.Row) string {
	expanded := strings.ReplaceAll(template, "{row}", oj.JSON(row.Value))
	return placeholderPattern.ReplaceAllStringFunc(expanded, func(match string) string {
		expr := match[1 : len(match)-1]
		path, err := jp.ParseString(expr)
		if err != nil {
			return ""
		}
		results := path.Get(row.Value)
		if len(results) == 0 {
			return ""
		}
		return valueToString(results[0])
	})
}

// valueToString renders a resolved placeholder value for prompt text.
// Objects and arrays are JSON-stringified; primitives print naturally.
func valueToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		b, err := oj.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CellWriter is the single write-back point for computed cell values,
// implemented by the document facade. Rows are addressed by canonical
// index only.
type CellWriter interface {
	SetCellValue(index int, path string, value any) error
}

// FillColumn runs the completer once per listed row and writes each output
// to targetPath on that row as it lands. Row failures are reported through
// onRow and do not stop the batch; cancelling ctx stops issuing new
// completions. Returns the number of rows written.
func FillColumn(ctx context.Context, writer CellWriter, rowIndices []int, rows map[int]*interfaces.Row, targetPath, template string, complete Completer, onRow func(index int, err error)) int {
	written := 0
	for _, index := range rowIndices {
		if ctx.Err() != nil {
			break
		}
		row, ok := rows[index]
		if !ok {
			continue
		}
		output, err := complete(ctx, BuildPrompt(template, row))
		if err == nil {
			err = writer.SetCellValue(index, targetPath, strings.TrimSpace(output))
		}
		if err == nil {
			written++
		}
		if onRow != nil {
			onRow(index, err)
		}
	}
	return written
}

// GenerateRows asks the completer for new rows and parses its output as
// JSONL: each non-blank output line that parses as JSON becomes one row
// value, lines that do not parse are skipped. An empty usable result is an
// error so callers never append nothing silently.
func GenerateRows(ctx context.Context, prompt string, complete Completer) ([]any, error) {
	output, err := complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	var values []any
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		value, err := oj.ParseString(line)
		if err != nil {
			continue
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("completion produced no parseable rows")
	}
	return values, nil
}
