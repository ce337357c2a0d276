//go:build !nozstd

package sink

import (
	"io"

	"github.com/DataDog/zstd"
)

func init() {
	zstdNewWriter = func(w io.Writer) (Writer, error) { return zstd.NewWriter(w), nil }
}
