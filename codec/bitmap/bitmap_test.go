package bitmap

import (
	"image/color"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/gomohawk/mohk/stream"
)

func grayPalette() color.Palette {
	pal := make(color.Palette, 256)
	for i := range pal {
		pal[i] = color.RGBA{R: uint8(i), G: uint8(i), B: uint8(i), A: 0xFF}
	}
	return pal
}

func TestDrawRLE8SingleRun(t *testing.T) {
	h := Header{Width: 4, Height: 1, Pitch: 4, BitsPerPixel: 8, Draw: DrawRLE8, Pack: PackRaw}

	var row []byte
	row = append(row, 0x00, 0x03) // rowByteCount = 3 (scenario value; one row, so the end-of-row seek is not observed)
	row = append(row, 0x83, 0xAA) // code=0x83 -> runLen=4, repeated byte 0xAA

	img, err := drawRLE8(h, row, grayPalette())
	assert.NilError(t, err)

	for x := 0; x < 4; x++ {
		assert.Equal(t, img.ColorIndexAt(x, 0), uint8(0xAA))
	}
}

func TestDrawRawEightBit(t *testing.T) {
	h := Header{Width: 2, Height: 2, Pitch: 3, BitsPerPixel: 8, Draw: DrawRaw, Pack: PackRaw}
	pixels := []byte{1, 2, 0, 3, 4, 0} // two rows of width 2, 1 pad byte each
	img, err := drawRaw(h, pixels, grayPalette())
	assert.NilError(t, err)
	assert.Equal(t, img.ColorIndexAt(0, 0), uint8(1))
	assert.Equal(t, img.ColorIndexAt(1, 0), uint8(2))
	assert.Equal(t, img.ColorIndexAt(0, 1), uint8(3))
	assert.Equal(t, img.ColorIndexAt(1, 1), uint8(4))
}

func TestDecodeExternalPalette(t *testing.T) {
	var data []byte
	data = append(data, 0x00, 0x01) // colorStart = 1
	data = append(data, 0x00, 0x02) // colorCount = 2
	data = append(data, 0x10, 0x20, 0x30, 0x00)
	data = append(data, 0x40, 0x50, 0x60, 0x00)

	pal, err := DecodeExternalPalette(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.Equal(t, pal[0], color.Color(color.RGBA{A: 0xFF}))
	r, g, b, _ := pal[1].RGBA()
	assert.Equal(t, uint8(r>>8), uint8(0x10))
	assert.Equal(t, uint8(g>>8), uint8(0x20))
	assert.Equal(t, uint8(b>>8), uint8(0x30))
}

func TestDetectPICT(t *testing.T) {
	data := make([]byte, 512+10+4)
	data[512+10] = 0x00
	data[512+11] = 0x11
	data[512+12] = 0x02
	data[512+13] = 0xFF
	assert.Assert(t, DetectPICT(data))
	assert.Assert(t, !DetectPICT(make([]byte, 10)))
}
