package jsonl

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// Compressed JSONL ingestion. Logs routinely arrive as .jsonl.gz/.bz2/.xz;
// compression is detected by magic bytes rather than extension so renamed
// files still load.

// CompressionType represents the compression format of a document file
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionGzip
	CompressionBzip2
	CompressionXZ
)

// String returns the string representation of CompressionType
func (ct CompressionType) String() string {
	switch ct {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	default:
		return "none"
	}
}

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{0x42, 0x5a, 0x68}
	xzMagic    = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

// DetectCompression inspects the leading bytes of data and reports its
// compression format.
func DetectCompression(data []byte) CompressionType {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(data, bzip2Magic):
		return CompressionBzip2
	case bytes.HasPrefix(data, xzMagic):
		return CompressionXZ
	default:
		return CompressionNone
	}
}

// Decompress unwraps compressed data into plain text bytes. Plain input is
// returned unchanged.
func Decompress(data []byte, compression CompressionType) ([]byte, error) {
	if compression == CompressionNone {
		return data, nil
	}

	var reader io.Reader
	switch compression {
	case CompressionGzip:
		gzReader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	case CompressionBzip2:
		reader = bzip2.NewReader(bytes.NewReader(data))
	case CompressionXZ:
		xzReader, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		reader = xzReader
	default:
		return nil, fmt.Errorf("unsupported compression type: %v", compression)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadDocument reads a JSONL document from disk, transparently
// decompressing it when needed, and returns the full text. Total inability
// to read the file is the only fatal load condition.
func ReadDocument(filePath string) (string, error) {
	if filePath == "" {
		return "", fmt.Errorf("file path is empty")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	plain, err := Decompress(data, DetectCompression(data))
	if err != nil {
		return "", fmt.Errorf("failed to decompress %s: %w", filePath, err)
	}
	return string(plain), nil
}
