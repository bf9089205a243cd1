// Package archive packs application bundles into distributable archives.
// An archive is one fixed chain: a tar stream of the bundle tree run
// through a registered compression codec.
package archive

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// Codec wraps one compression format for the archive chain
type Codec interface {
	// Name returns the codec identifier used in format definitions
	Name() string

	// Compress wraps w; callers must Close the returned writer to flush
	Compress(w io.Writer) (io.WriteCloser, error)

	// Decompress wraps r for reading back
	Decompress(r io.Reader) (io.ReadCloser, error)

	// EstimateSize estimates compressed output size for disk planning
	EstimateSize(inputSize int64) int64
}

// registry maps codec names to implementations
var registry = make(map[string]Codec)

// Register makes a codec available to format resolution. Codec packages
// register themselves from init, so callers import them for side effects.
func Register(codec Codec) {
	registry[codec.Name()] = codec
}

// GetCodec retrieves a codec by name
func GetCodec(name string) (Codec, error) {
	codec, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
	return codec, nil
}

// Format describes one archive layout
type Format struct {
	Name      string // canonical name, e.g. "tar.gz"
	Codec     string // codec the tar stream runs through
	Extension string // output suffix including the leading dot
}

var formats = map[string]Format{
	"tar.gz":  {Name: "tar.gz", Codec: "gzip", Extension: ".tar.gz"},
	"tgz":     {Name: "tar.gz", Codec: "gzip", Extension: ".tar.gz"},
	"tar.bz2": {Name: "tar.bz2", Codec: "bzip2", Extension: ".tar.bz2"},
	"tbz2":    {Name: "tar.bz2", Codec: "bzip2", Extension: ".tar.bz2"},
}

// ResolveFormat maps a format name or alias to its definition
func ResolveFormat(name string) (Format, error) {
	format, ok := formats[strings.ToLower(name)]
	if !ok {
		return Format{}, fmt.Errorf("unsupported archive format %q (supported: %s)", name, strings.Join(FormatNames(), ", "))
	}
	return format, nil
}

// FormatForPath picks the format matching a file name's suffix
func FormatForPath(path string) (Format, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		return formats["tar.gz"], nil
	case strings.HasSuffix(lower, ".tar.bz2") || strings.HasSuffix(lower, ".tbz2"):
		return formats["tar.bz2"], nil
	}
	return Format{}, fmt.Errorf("cannot infer archive format from %q", filepath.Base(path))
}

// FormatNames returns the canonical format names, sorted
func FormatNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, format := range formats {
		if !seen[format.Name] {
			seen[format.Name] = true
			names = append(names, format.Name)
		}
	}
	sort.Strings(names)
	return names
}
