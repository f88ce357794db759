package jsonl

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close failed: %v", err)
	}
	return buf.Bytes()
}

func TestDetectCompression(t *testing.T) {
	plain := []byte(`{"a":1}`)
	tests := []struct {
		name string
		data []byte
		want CompressionType
	}{
		{"Plain JSONL", plain, CompressionNone},
		{"Gzip", gzipBytes(t, plain), CompressionGzip},
		{"Bzip2 magic", []byte{0x42, 0x5a, 0x68, 0x39}, CompressionBzip2},
		{"XZ magic", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00}, CompressionXZ},
		{"Empty", nil, CompressionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCompression(tt.data); got != tt.want {
				t.Errorf("DetectCompression = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecompressGzipRoundTrip(t *testing.T) {
	original := []byte("{\"a\":1}\n{\"b\":2}\n")
	compressed := gzipBytes(t, original)

	out, err := Decompress(compressed, CompressionGzip)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(out, original) {
		t.Errorf("round trip mismatch: got %q want %q", out, original)
	}
}

func TestDecompressPlainPassthrough(t *testing.T) {
	data := []byte(`{"a":1}`)
	out, err := Decompress(data, CompressionNone)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("plain data should pass through unchanged")
	}
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	content := "{\"a\":1}\n{\"b\":2}\n"

	plainPath := filepath.Join(dir, "plain.jsonl")
	if err := os.WriteFile(plainPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	// Deliberately misleading extension; detection is by magic bytes.
	gzPath := filepath.Join(dir, "renamed.jsonl")
	if err := os.WriteFile(gzPath, gzipBytes(t, []byte(content)), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"Plain file", plainPath},
		{"Gzip file with plain extension", gzPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadDocument(tt.path)
			if err != nil {
				t.Fatalf("ReadDocument failed: %v", err)
			}
			if got != content {
				t.Errorf("content = %q, want %q", got, content)
			}
		})
	}
}

func TestReadDocumentMissingFile(t *testing.T) {
	if _, err := ReadDocument(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := ReadDocument(""); err == nil {
		t.Error("expected error for empty path")
	}
}
