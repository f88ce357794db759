package jsonl

import (
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantBlank bool
		wantErr   bool
		wantRow   bool
	}{
		{
			name:    "Valid object",
			raw:     `{"a": 1, "b": "two"}`,
			wantRow: true,
		},
		{
			name:    "Valid array",
			raw:     `[1, 2, 3]`,
			wantRow: true,
		},
		{
			name:    "Valid scalar",
			raw:     `42`,
			wantRow: true,
		},
		{
			name:      "Empty line",
			raw:       "",
			wantBlank: true,
		},
		{
			name:      "Whitespace only",
			raw:       "   \t  ",
			wantBlank: true,
		},
		{
			name:    "Malformed JSON",
			raw:     `{"a": `,
			wantErr: true,
		},
		{
			name:    "Unbalanced braces",
			raw:     `{"a": 1}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseLine(7, tt.raw, nil)
			if parsed.LineNumber != 7 {
				t.Errorf("LineNumber = %d, want 7", parsed.LineNumber)
			}
			if parsed.Raw != tt.raw {
				t.Errorf("Raw = %q, want the verbatim line %q", parsed.Raw, tt.raw)
			}
			if parsed.Blank != tt.wantBlank {
				t.Errorf("Blank = %v, want %v", parsed.Blank, tt.wantBlank)
			}
			if (parsed.Err != "") != tt.wantErr {
				t.Errorf("Err = %q, wantErr %v", parsed.Err, tt.wantErr)
			}
			if (parsed.Row != nil) != tt.wantRow {
				t.Errorf("Row presence = %v, want %v", parsed.Row != nil, tt.wantRow)
			}
			if parsed.Row != nil && parsed.Row.Index != -1 {
				t.Errorf("Row.Index = %d, want -1 before store assignment", parsed.Row.Index)
			}
		})
	}
}

func TestParseLineCountsPaths(t *testing.T) {
	counts := NewPathCounts()

	ParseLine(1, `{"user": {"name": "amy"}, "level": 3}`, counts)
	ParseLine(2, `{"user": {"name": "bob"}}`, counts)
	ParseLine(3, `not json`, counts)
	ParseLine(4, ``, counts)

	if info, ok := counts.Get("user"); !ok || info.Count != 2 {
		t.Errorf("user count = %+v, want Count 2", info)
	}
	if info, ok := counts.Get("user.name"); !ok || info.Count != 2 || !info.Leaf {
		t.Errorf("user.name = %+v, want Count 2 leaf", info)
	}
	if info, ok := counts.Get("level"); !ok || info.Count != 1 {
		t.Errorf("level count = %+v, want Count 1", info)
	}
}

func TestParseLineErrorKeepsDiagnostic(t *testing.T) {
	parsed := ParseLine(3, `{"a": }`, nil)
	if parsed.Err == "" {
		t.Fatal("expected a parser diagnostic for malformed JSON")
	}
	if parsed.Row != nil {
		t.Error("malformed line must not produce a row")
	}
	if parsed.Raw != `{"a": }` {
		t.Errorf("Raw = %q, want original content preserved", parsed.Raw)
	}
}
