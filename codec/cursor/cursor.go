// Package cursor transcodes Mohawk Mac-style cursors (a 32-byte 1-bit XOR
// plane, a 32-byte AND mask, and a hotspot) into the Windows CUR format.
package cursor

import (
	"bytes"
	"encoding/binary"

	"github.com/gomohawk/mohk"
)

var ErrFormatInvalid = mohk.ErrFormatInvalid

const (
	planeSize  = 32
	outputSize = 6 + 16 + 40 + 8 + 64 + 64 // 198
)

// Transcode converts a Mac cursor's icon/mask planes and hotspot
// (Y-first wire order) into a complete Windows CUR file.
func Transcode(icon, mask []byte, hotspotY, hotspotX uint16) ([]byte, error) {
	if len(icon) != planeSize || len(mask) != planeSize {
		return nil, ErrFormatInvalid("cursor: icon/mask must be %d bytes each, got %d/%d", planeSize, len(icon), len(mask))
	}

	iconData := make([]byte, planeSize)
	maskData := make([]byte, planeSize)
	for i := range icon {
		iconData[i] = (^icon[i]) & mask[i] & 0xFF
		maskData[i] = (^mask[i]) & 0xFF
	}

	var buf bytes.Buffer

	// ICO/CUR file header: reserved=0, type=2 (cursor), count=1.
	binary.Write(&buf, binary.LittleEndian, uint16(0))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(1))

	// Cursor image header.
	buf.WriteByte(16) // width
	buf.WriteByte(16) // height
	buf.WriteByte(2)  // colorCount
	buf.WriteByte(0)  // reserved
	binary.Write(&buf, binary.LittleEndian, hotspotX)
	binary.Write(&buf, binary.LittleEndian, hotspotY)
	bitmapSize := uint32(40 + 4*16*2 + 8)
	binary.Write(&buf, binary.LittleEndian, bitmapSize)
	binary.Write(&buf, binary.LittleEndian, uint32(6+16))

	// BITMAPINFOHEADER.
	binary.Write(&buf, binary.LittleEndian, uint32(40))  // size
	binary.Write(&buf, binary.LittleEndian, int32(16))   // width
	binary.Write(&buf, binary.LittleEndian, int32(32))   // height: XOR+AND doubled
	binary.Write(&buf, binary.LittleEndian, uint16(1))   // planes
	binary.Write(&buf, binary.LittleEndian, uint16(1))   // bpp
	binary.Write(&buf, binary.LittleEndian, uint32(0))   // compression
	binary.Write(&buf, binary.LittleEndian, uint32(4*16*2)) // image size
	binary.Write(&buf, binary.LittleEndian, int32(0))    // x resolution
	binary.Write(&buf, binary.LittleEndian, int32(0))    // y resolution
	binary.Write(&buf, binary.LittleEndian, uint32(2))   // palette size
	binary.Write(&buf, binary.LittleEndian, uint32(0))   // important colors

	// 2-entry palette, BGRx order, stored big-endian per the wire spec.
	binary.Write(&buf, binary.BigEndian, uint32(0x000000FF))
	binary.Write(&buf, binary.BigEndian, uint32(0xFFFFFFFF))

	writePlane(&buf, iconData)
	writePlane(&buf, maskData)

	out := buf.Bytes()
	if len(out) != outputSize {
		return nil, ErrFormatInvalid("cursor: internal size mismatch, got %d want %d", len(out), outputSize)
	}
	return out, nil
}

// writePlane emits a 1-bit plane as 16 rows of 2 bytes plus 2 zero
// padding bytes (4-byte row alignment), walked in reverse row order.
func writePlane(buf *bytes.Buffer, plane []byte) {
	for y := 30; y >= 0; y -= 2 {
		buf.Write(plane[y : y+2])
		buf.Write([]byte{0, 0})
	}
}
