package riven

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/gomohawk/mohk/stream"
)

func framed(payload ...byte) []byte {
	return append([]byte{0, 0, 0, 0}, payload...) // buffer-size prologue, skipped
}

func TestDecompressWordVerbatim(t *testing.T) {
	// c=0x01: one verbatim 2-byte word, then terminator.
	data := framed(0x01, 0xAA, 0xBB, 0x00)
	out, err := Decompress(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.DeepEqual(t, out, []byte{0xAA, 0xBB})
}

func TestDecompressWordRepeat(t *testing.T) {
	// One verbatim word, then repeat it twice (c=0x42 -> n=2).
	data := framed(0x01, 0x11, 0x22, 0x42, 0x00)
	out, err := Decompress(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.DeepEqual(t, out, []byte{0x11, 0x22, 0x11, 0x22, 0x11, 0x22})
}

func TestDecompressDoubleWordRepeat(t *testing.T) {
	// Two verbatim words (4 bytes), then double-word repeat once (c=0x81 -> n=1).
	data := framed(0x02, 0x01, 0x02, 0x03, 0x04, 0x81, 0x00)
	out, err := Decompress(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.DeepEqual(t, out, []byte{0x01, 0x02, 0x03, 0x04, 0x01, 0x02, 0x03, 0x04})
}

func TestDecompressSpecializedTwoByteVerbatim(t *testing.T) {
	// c=0xC1: one sub-command. sub-code 0xE0 selects two-byte verbatim.
	data := framed(0xC1, 0xE0, 0x55, 0x66, 0x00)
	out, err := Decompress(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.DeepEqual(t, out, []byte{0x55, 0x66})
}

func TestDecompressSpecializedLiteralPlusBackRef(t *testing.T) {
	// Seed one verbatim word, then a specialized literal+back-reference
	// sub-command referencing the last byte (sub-code 0x40 -> dist 1).
	data := framed(0x01, 0x10, 0x20, 0xC1, 0x40, 0x99, 0x00)
	out, err := Decompress(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.DeepEqual(t, out, []byte{0x10, 0x20, 0x99, 0x20})
}

func TestDecompressRejectsUnknownSubCode(t *testing.T) {
	data := framed(0xC1, 0xFD, 0x00)
	_, err := Decompress(stream.NewBuffer(data))
	assert.Assert(t, err != nil)
}

func TestDecodeNameList(t *testing.T) {
	// count=2, offsets [0, 5], two skipped unknown columns, then strings
	// "ab\xBDc" and "xy" at base = count*4+2 = 10.
	var data []byte
	data = append(data, 0x00, 0x02) // count
	data = append(data, 0x00, 0x00) // offset 0
	data = append(data, 0x00, 0x05) // offset 1
	data = append(data, 0x00, 0x00) // unknown[0]
	data = append(data, 0x00, 0x00) // unknown[1]
	data = append(data, 'a', 'b', 0xBD, 'c', 0x00)
	data = append(data, 'x', 'y', 0x00)

	names, err := DecodeNameList(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.DeepEqual(t, names, []string{"abc", "xy"})
}

func TestDecodeScriptsAssignAndIncrement(t *testing.T) {
	var data []byte
	data = append(data, 0x00, 0x01) // script count

	data = append(data, 0x00, 0x06) // script type: Load Card
	data = append(data, 0x00, 0x02) // command count

	// Command 1: assign (opcode 7), 2 args: var 3, value 9.
	data = append(data, 0x00, 0x07, 0x00, 0x02, 0x00, 0x03, 0x00, 0x09)
	// Command 2: increment (opcode 24), 1 arg: var 3.
	data = append(data, 0x00, 0x18, 0x00, 0x01, 0x00, 0x03)

	text, err := DecodeScripts(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.Assert(t, text != "")
}
