// Package bitmap decodes Mohawk tBMP paletted image resources: a
// format word that selects bit depth, palette presence, draw type, and
// pack type; an optional embedded palette; and the raw or RLE8 pixel
// unpacker feeding an image/color.Palette-backed image.Paletted.
package bitmap

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/gomohawk/mohk"
	"github.com/gomohawk/mohk/codec/lz"
	"github.com/gomohawk/mohk/codec/riven"
	"github.com/gomohawk/mohk/stream"
)

var (
	ErrOutOfRange    = mohk.ErrOutOfRange
	ErrUnsupported   = mohk.ErrUnsupported
	ErrFormatInvalid = mohk.ErrFormatInvalid
	WrapIO           = mohk.WrapIO
)

// PackType selects the pixel-stream decompressor.
type PackType int

const (
	PackRaw   PackType = 0
	PackLZ    PackType = 1
	PackRiven PackType = 4
)

// DrawType selects the row-reconstruction algorithm.
type DrawType int

const (
	DrawRaw  DrawType = 0
	DrawRLE8 DrawType = 1
)

// Header is the decoded bitmap format word plus its derived fields.
type Header struct {
	Width, Height, Pitch int
	BitsPerPixel         int
	HasPalette           bool
	Draw                 DrawType
	Pack                 PackType
}

var bppTable = [8]int{1, 4, 8, 16, 24, 0, 0, 0}

func parseHeader(s *stream.Stream) (Header, error) {
	width, err := s.ReadUint16BE()
	if err != nil {
		return Header{}, WrapIO(err, "bitmap: read width")
	}
	height, err := s.ReadUint16BE()
	if err != nil {
		return Header{}, WrapIO(err, "bitmap: read height")
	}
	pitch, err := s.ReadUint16BE()
	if err != nil {
		return Header{}, WrapIO(err, "bitmap: read pitch")
	}
	format, err := s.ReadUint16BE()
	if err != nil {
		return Header{}, WrapIO(err, "bitmap: read format")
	}

	bpp := bppTable[format&7]
	if bpp == 0 {
		return Header{}, ErrOutOfRange("bitmap: invalid bits-per-pixel selector %d", format&7)
	}

	return Header{
		Width:        int(width & 0x3FFF),
		Height:       int(height & 0x3FFF),
		Pitch:        int(pitch & 0x3FFE),
		BitsPerPixel: bpp,
		HasPalette:   format&0x80 != 0,
		Draw:         DrawType((format >> 4) & 0x0F),
		Pack:         PackType((format >> 8) & 0x0F),
	}, nil
}

// readEmbeddedPalette reads the embedded palette format: u16 table size, u8
// bit size, u8 count, then 256 BGRx quads (the unused bytes are skipped);
// only the first count entries are meaningful.
func readEmbeddedPalette(s *stream.Stream) (color.Palette, error) {
	if _, err := s.ReadUint16BE(); err != nil { // table size, ignored
		return nil, WrapIO(err, "bitmap: read palette table size")
	}
	if _, err := s.ReadUint8(); err != nil { // bit size, ignored
		return nil, WrapIO(err, "bitmap: read palette bit size")
	}
	count, err := s.ReadUint8()
	if err != nil {
		return nil, WrapIO(err, "bitmap: read palette count")
	}

	pal := make(color.Palette, 256)
	for i := 0; i < 256; i++ {
		quad, err := s.ReadBytes(4)
		if err != nil {
			return nil, WrapIO(err, "bitmap: read palette entry %d", i)
		}
		if i < int(count) {
			pal[i] = color.RGBA{R: quad[2], G: quad[1], B: quad[0], A: 0xFF}
		} else {
			pal[i] = color.RGBA{A: 0xFF}
		}
	}
	return pal, nil
}

// DecodeExternalPalette reads a tPAL resource: u16 colorStart, u16
// colorCount, then colorCount RGBx quads. Entries outside
// [colorStart, colorStart+colorCount) are black.
func DecodeExternalPalette(s *stream.Stream) (color.Palette, error) {
	colorStart, err := s.ReadUint16BE()
	if err != nil {
		return nil, WrapIO(err, "palette: read color start")
	}
	colorCount, err := s.ReadUint16BE()
	if err != nil {
		return nil, WrapIO(err, "palette: read color count")
	}

	pal := make(color.Palette, 256)
	for i := range pal {
		pal[i] = color.RGBA{A: 0xFF}
	}
	for i := 0; i < int(colorCount); i++ {
		quad, err := s.ReadBytes(4)
		if err != nil {
			return nil, WrapIO(err, "palette: read entry %d", i)
		}
		idx := int(colorStart) + i
		if idx >= 0 && idx < 256 {
			pal[idx] = color.RGBA{R: quad[0], G: quad[1], B: quad[2], A: 0xFF}
		}
	}
	return pal, nil
}

func unpack(s *stream.Stream, h Header, uncompressedSize int) ([]byte, error) {
	switch h.Pack {
	case PackRaw:
		data, err := s.ReadBytes(uncompressedSize)
		if err != nil {
			return nil, WrapIO(err, "bitmap: read raw pixel stream")
		}
		return data, nil
	case PackLZ:
		return lz.Decompress(s)
	case PackRiven:
		return riven.Decompress(s)
	default:
		return nil, ErrUnsupported("bitmap: unknown pack type %d", h.Pack)
	}
}

// drawRaw draws an 8-bit or 24-bit raw row stream into an 8-bit paletted
// image. 24-bit input is quantized by nearest-match against pal, since the
// output format is always 8-bit paletted per the conversion pipeline.
func drawRaw(h Header, pixels []byte, pal color.Palette) (*image.Paletted, error) {
	if h.BitsPerPixel != 8 && h.BitsPerPixel != 24 {
		return nil, ErrUnsupported("bitmap: raw draw unsupported for %d bpp", h.BitsPerPixel)
	}
	img := image.NewPaletted(image.Rect(0, 0, h.Width, h.Height), pal)
	bytesPerPixel := h.BitsPerPixel / 8
	rowBytes := h.Width * bytesPerPixel
	pos := 0
	for y := 0; y < h.Height; y++ {
		if pos+rowBytes > len(pixels) {
			return nil, ErrFormatInvalid("bitmap: raw row %d truncated", y)
		}
		for x := 0; x < h.Width; x++ {
			off := pos + x*bytesPerPixel
			var idx byte
			if h.BitsPerPixel == 8 {
				idx = pixels[off]
			} else {
				b, g, r := pixels[off], pixels[off+1], pixels[off+2]
				idx = uint8(pal.Index(color.RGBA{R: r, G: g, B: b, A: 0xFF}))
			}
			img.SetColorIndex(x, y, idx)
		}
		pos += h.Pitch
	}
	return img, nil
}

// drawRLE8 draws an 8-bit RLE-encoded row stream: per row, a byte count
// prefix, then run-length codes (top bit set = repeated byte, clear =
// literal run).
func drawRLE8(h Header, pixels []byte, pal color.Palette) (*image.Paletted, error) {
	if h.BitsPerPixel != 8 {
		return nil, ErrUnsupported("bitmap: RLE8 draw unsupported for %d bpp", h.BitsPerPixel)
	}
	img := image.NewPaletted(image.Rect(0, 0, h.Width, h.Height), pal)
	s := stream.NewBuffer(pixels)

	for y := 0; y < h.Height; y++ {
		startPos := s.Pos()
		rowByteCount, err := s.ReadUint16BE()
		if err != nil {
			return nil, WrapIO(err, "bitmap: RLE8 row %d byte count", y)
		}

		x := 0
		for x < h.Width {
			code, err := s.ReadUint8()
			if err != nil {
				return nil, WrapIO(err, "bitmap: RLE8 row %d code", y)
			}
			runLen := int(code&0x7F) + 1
			if x+runLen > h.Width {
				runLen = h.Width - x
			}
			if code&0x80 == 0 {
				for i := 0; i < runLen; i++ {
					b, err := s.ReadUint8()
					if err != nil {
						return nil, WrapIO(err, "bitmap: RLE8 row %d literal", y)
					}
					img.SetColorIndex(x, y, b)
					x++
				}
			} else {
				b, err := s.ReadUint8()
				if err != nil {
					return nil, WrapIO(err, "bitmap: RLE8 row %d run byte", y)
				}
				for i := 0; i < runLen; i++ {
					img.SetColorIndex(x, y, b)
					x++
				}
			}
		}

		if err := s.SeekAbs(startPos + int64(rowByteCount)); err != nil {
			return nil, WrapIO(err, "bitmap: RLE8 row %d seek", y)
		}
	}
	return img, nil
}

// Decode decodes a single tBMP resource payload into a paletted image.
// externalPal is the palette to use when the payload has no embedded one
// (a nil externalPal in that case is an external-palette-required error).
func Decode(s *stream.Stream, externalPal color.Palette) (*image.Paletted, error) {
	h, err := parseHeader(s)
	if err != nil {
		return nil, err
	}

	var pal color.Palette
	if h.HasPalette || h.Pack == PackRiven {
		pal, err = readEmbeddedPalette(s)
		if err != nil {
			return nil, err
		}
	} else if h.BitsPerPixel < 16 {
		if externalPal == nil {
			return nil, ErrLookupMiss("bitmap: %d-bit image has no embedded palette and no palette option given", h.BitsPerPixel)
		}
		pal = externalPal
	} else {
		pal = color.Palette{}
	}

	uncompressedSize := h.Pitch * h.Height
	pixels, err := unpack(s, h, uncompressedSize)
	if err != nil {
		return nil, err
	}

	switch h.Draw {
	case DrawRaw:
		return drawRaw(h, pixels, pal)
	case DrawRLE8:
		return drawRLE8(h, pixels, pal)
	default:
		return nil, ErrUnsupported("bitmap: unknown draw type %d", h.Draw)
	}
}

// ErrLookupMiss is used for the "no palette available" boundary case,
// which is a missing-input condition rather than a malformed archive.
var ErrLookupMiss = mohk.ErrLookupMiss

// EncodePNG writes img as an 8-bit paletted PNG at best compression, the
// bit depth fix called out for paletted output (bitdepth must be 8, not
// bitsPerPixel).
func EncodePNG(img *image.Paletted) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, WrapIO(err, "bitmap: encode PNG")
	}
	return buf.Bytes(), nil
}

// DecodeSet decodes a bitmap-set resource: a framed collection of
// sub-images sharing one pack type. Each returned image is independently
// drawn through the same Decode pipeline's unpack+draw logic over its own
// slice of the concatenated sub-image region.
func DecodeSet(s *stream.Stream, externalPal color.Palette) ([]*image.Paletted, error) {
	imageCountRaw, err := s.ReadUint16BE()
	if err != nil {
		return nil, WrapIO(err, "bitmapset: read image count")
	}
	imageCount := int(imageCountRaw & 0x3FFF)

	if _, err := s.ReadBytes(4); err != nil { // reserved, ignored
		return nil, WrapIO(err, "bitmapset: read reserved")
	}
	format, err := s.ReadUint16BE() // only its pack type applies to the set
	if err != nil {
		return nil, WrapIO(err, "bitmapset: read format")
	}
	// The rest of the resource is unpacked once with the set's pack type;
	// offsets and sub-images are then read from the unpacked buffer, and
	// each sub-image reparses its own header.
	decoded, err := unpack(s, Header{Pack: PackType((format >> 8) & 0x0F)}, int(s.Size()-s.Pos()))
	if err != nil {
		return nil, err
	}
	ds := stream.NewBuffer(decoded)

	offsets := make([]uint32, imageCount)
	for i := range offsets {
		off, err := ds.ReadUint32BE()
		if err != nil {
			return nil, WrapIO(err, "bitmapset: read offset %d", i)
		}
		offsets[i] = off - 8
	}

	imgs := make([]*image.Paletted, imageCount)
	for i, off := range offsets {
		if err := ds.SeekAbs(int64(off)); err != nil {
			return nil, WrapIO(err, "bitmapset: seek sub-image %d", i)
		}
		img, err := Decode(ds, externalPal)
		if err != nil {
			return nil, WrapIO(err, "bitmapset: decode sub-image %d", i)
		}
		imgs[i] = img
	}
	return imgs, nil
}

// pictPreambleSize is the fixed PICT-format preamble length, per the
// detected-and-rejected signature.
const pictPreambleSize = 512

// DetectPICT reports whether data carries the PICT signature (512-byte
// preamble + 10 bytes + the 0x001102FF marker). PICT rendering is out of
// scope; this exists only to fail explicitly rather than miscompile.
func DetectPICT(data []byte) bool {
	markerAt := pictPreambleSize + 10
	if len(data) < markerAt+4 {
		return false
	}
	marker := uint32(data[markerAt])<<24 | uint32(data[markerAt+1])<<16 | uint32(data[markerAt+2])<<8 | uint32(data[markerAt+3])
	return marker == 0x001102FF
}
