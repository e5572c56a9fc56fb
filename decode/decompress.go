package decode

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Decompress inspects a field name for a known compression extension and,
// when one is present, returns the decompressed payload and the name with
// the suffix stripped. Names without a known extension pass through
// untouched.
func Decompress(field string, data []byte) (string, []byte, error) {
	switch {
	case strings.HasSuffix(field, ".gz"):
		out, err := gunzip(data)
		return strings.TrimSuffix(field, ".gz"), out, err
	case strings.HasSuffix(field, ".zst"):
		out, err := unzstd(data)
		return strings.TrimSuffix(field, ".zst"), out, err
	case strings.HasSuffix(field, ".lz4"):
		out, err := unlz4(data)
		return strings.TrimSuffix(field, ".lz4"), out, err
	}
	return field, data, nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func unzstd(data []byte) ([]byte, error) {
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func unlz4(data []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
}
