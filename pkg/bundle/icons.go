package bundle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/nfnt/resize"
)

// icnsMember maps an icon type code to its pixel size. Only PNG-payload
// member types are emitted; the legacy ARGB/RLE types are not.
type icnsMember struct {
	osType string
	size   int
}

// Members ordered small to large; several point sizes share pixel data
var icnsMembers = []icnsMember{
	{"ic11", 32},   // 16pt @2x
	{"ic12", 64},   // 32pt @2x
	{"ic07", 128},  // 128pt
	{"ic08", 256},  // 256pt
	{"ic13", 256},  // 128pt @2x
	{"ic09", 512},  // 512pt
	{"ic14", 512},  // 256pt @2x
	{"ic10", 1024}, // 512pt @2x
}

// BuildIcns renders an icns container from a source image. When sizes is
// non-empty, only member types with matching pixel sizes are emitted.
// Container layout: "icns" magic, big-endian total length, then per member
// a 4-byte type code, big-endian member length, and the PNG payload.
func BuildIcns(source image.Image, sizes []int) ([]byte, error) {
	wanted := func(size int) bool {
		if len(sizes) == 0 {
			return true
		}
		for _, s := range sizes {
			if s == size {
				return true
			}
		}
		return false
	}

	rendered := map[int][]byte{}
	var members []icnsMember
	for _, member := range icnsMembers {
		if !wanted(member.size) {
			continue
		}
		if _, ok := rendered[member.size]; !ok {
			var buf bytes.Buffer
			if err := png.Encode(&buf, renderSquare(source, member.size)); err != nil {
				return nil, fmt.Errorf("failed to encode %dpx icon: %w", member.size, err)
			}
			rendered[member.size] = buf.Bytes()
		}
		members = append(members, member)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("no icon sizes selected")
	}

	total := 8
	for _, member := range members {
		total += 8 + len(rendered[member.size])
	}

	var out bytes.Buffer
	out.Grow(total)
	out.WriteString("icns")
	writeBE32(&out, uint32(total))
	for _, member := range members {
		data := rendered[member.size]
		out.WriteString(member.osType)
		writeBE32(&out, uint32(8+len(data)))
		out.Write(data)
	}
	return out.Bytes(), nil
}

func writeBE32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// renderSquare scales the source onto a transparent square canvas,
// preserving aspect ratio. Sources smaller than the target are centered
// rather than upscaled.
func renderSquare(source image.Image, size int) image.Image {
	thumb := resize.Thumbnail(uint(size), uint(size), source, resize.Lanczos3)
	bounds := thumb.Bounds()
	if bounds.Dx() == size && bounds.Dy() == size {
		return thumb
	}

	square := image.NewRGBA(image.Rect(0, 0, size, size))
	offsetX := (size - bounds.Dx()) / 2
	offsetY := (size - bounds.Dy()) / 2
	target := image.Rect(offsetX, offsetY, offsetX+bounds.Dx(), offsetY+bounds.Dy())
	draw.Draw(square, target, thumb, bounds.Min, draw.Over)
	return square
}

// RenderIconFile reads a PNG image and writes the bundle's icns file
func RenderIconFile(sourcePath, destPath string, sizes []int, logger hclog.Logger) error {
	file, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open icon source: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return fmt.Errorf("failed to decode icon source: %w", err)
	}

	data, err := BuildIcns(img, sizes)
	if err != nil {
		return err
	}

	logger.Debug("🖼️ Rendered bundle icon", "source", sourcePath, "bytes", len(data))
	if err := os.WriteFile(destPath, data, os.FileMode(ResourcePerms)); err != nil {
		return fmt.Errorf("failed to write icon: %w", err)
	}
	return nil
}
