package utils

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ralt/appget/internal/scanner"
	"github.com/ulikunitz/xz"
)

// NewDecompressReader wraps r with the decompressor for a tarball kind
func NewDecompressReader(kind scanner.InstallerKind, r io.Reader) (io.ReadCloser, error) {
	switch kind {
	case scanner.KindTarGz:
		return gzip.NewReader(r)
	case scanner.KindTarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case scanner.KindTarZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("no decompressor for %s", kind)
	}
}
