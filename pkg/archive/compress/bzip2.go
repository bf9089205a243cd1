package compress

import (
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/bundleworks/appshim/pkg/archive"
)

func init() {
	// Register BZIP2 codec on package init
	archive.Register(&Bzip2Codec{})
}

// Bzip2Codec implements BZIP2 compression
type Bzip2Codec struct{}

// Name returns the codec identifier
func (c *Bzip2Codec) Name() string {
	return "bzip2"
}

// Compress wraps w with a bzip2 writer at maximum block size
func (c *Bzip2Codec) Compress(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: 9})
}

// Decompress wraps r with a bzip2 reader
func (c *Bzip2Codec) Decompress(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, &bzip2.ReaderConfig{})
}

// EstimateSize estimates compressed size
func (c *Bzip2Codec) EstimateSize(inputSize int64) int64 {
	// BZIP2 typically achieves better compression than GZIP
	return (inputSize*7)/10 + 32 // +32 for bzip2 overhead
}
