package sink

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// Writer is a WriteCloser where Close flushes and finalizes any
// compression framing but does not close the underlying file — the
// caller owns the file's lifecycle (open, fsync, close), matching
// broker/codecs.Compressor's separation of concerns.
type Writer io.WriteCloser

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewWriter returns a Writer for the given compression type, wrapping
// w (typically an *os.File opened under an archive's fsentry
// directory for one tablespace).
func NewWriter(w io.Writer, compress descriptor.CompressType) (Writer, error) {
	switch compress {
	case descriptor.CompressNone, descriptor.CompressPlain:
		return nopWriteCloser{w}, nil
	case descriptor.CompressGzip:
		return gzip.NewWriter(w), nil
	case descriptor.CompressZstd:
		return zstdNewWriter(w)
	case descriptor.CompressPbzip:
		return nil, pgerror.InvalidArgument("compress_type", "pbzip has no available Go implementation")
	default:
		return nil, errors.Errorf("unsupported compress_type %q", compress)
	}
}

// zstdNewWriter is overridden by zstd_enable.go unless the nozstd
// build tag is present.
var zstdNewWriter = func(io.Writer) (Writer, error) {
	return nil, errors.New("zstd support was not enabled at compile time")
}
