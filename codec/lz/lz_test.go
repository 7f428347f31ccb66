package lz

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/gomohawk/mohk"
	"github.com/gomohawk/mohk/stream"
)

func frame(uncompressedSize, compressedSize uint32, dictSize uint16, payload []byte) []byte {
	var w []byte
	put32 := func(v uint32) {
		w = append(w, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	put16 := func(v uint16) {
		w = append(w, byte(v>>8), byte(v))
	}
	put32(uncompressedSize)
	put32(compressedSize)
	put16(dictSize)
	return append(w, payload...)
}

func TestDecompressSingleLiteral(t *testing.T) {
	data := frame(1, 3, 1024, []byte{0x01, 0x41})
	out, err := Decompress(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.DeepEqual(t, out, []byte{0x41})
}

func TestDecompressRejectsBadDictSize(t *testing.T) {
	data := frame(1, 3, 2048, []byte{0x01, 0x41})
	_, err := Decompress(stream.NewBuffer(data))
	assert.Assert(t, mohk.IsOutOfRange(err))
}

func TestDecompressAllLiterals(t *testing.T) {
	// flags byte 0x07 selects literal for its low 3 bits; three literals.
	data := frame(3, 4, 1024, []byte{0x07, 'a', 'b', 'c'})
	out, err := Decompress(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.DeepEqual(t, out, []byte("abc"))
}

func TestDecompressBackReference(t *testing.T) {
	// Flag byte 0x07 selects literal for its 3 low bits and back-reference
	// for bit 3; OR'd with 0xFF00, the register keeps its sentinel bit 8 set
	// through the 8th op, so the 4th op (the back-reference) reads its
	// offLen directly from the stream without a fresh flag byte.
	//
	// Back-reference copies 3 bytes from position 0 (stringPos=0 after the
	// (offLen+maxString)&posMask fold), reproducing "abc" again.
	// offLen encodes stringLen=3 (top 6 bits = 0) and stringPos such that
	// (offLen+maxString)&1023 == 0, i.e. offLen == (1024-66)&1023 == 958
	// == 0x03BE.
	data := frame(6, 6, 1024, []byte{
		0x07, 'a', 'b', 'c', // flags: 3 literals, 4th op is back-reference
		0x03, 0xBE,
	})
	out, err := Decompress(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.DeepEqual(t, out, []byte("abcabc"))
}

// TestDecompressOverlappingBackReferenceSpansPastBufferSize exercises
// insertPos=1000, stringPos=990, stringLen=40: stringPos+stringLen (1030)
// exceeds bufferSize, but stringPos <= insertPos, so this must take the
// straight self-overlapping copy (distance 10, producing a periodic repeat)
// rather than the byte-by-byte wraparound path, which only applies when
// stringPos > insertPos.
func TestDecompressOverlappingBackReferenceSpansPastBufferSize(t *testing.T) {
	const insertPosTarget = 1000
	const stringPos = 990
	const stringLen = 40
	const distance = insertPosTarget - stringPos

	literals := make([]byte, insertPosTarget)
	for i := range literals {
		literals[i] = byte(i % 256)
	}

	var payload []byte
	for g := 0; g < insertPosTarget/8; g++ {
		payload = append(payload, 0xFF)
		payload = append(payload, literals[g*8:g*8+8]...)
	}

	offLen := uint16(((stringLen - minString) << posBits) | ((stringPos - maxString) & posMask))
	payload = append(payload, 0xFE, byte(offLen>>8), byte(offLen))

	uncompressedSize := uint32(insertPosTarget + stringLen)
	data := frame(uncompressedSize, uint32(len(payload)), 1024, payload)

	out, err := Decompress(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.Equal(t, len(out), int(uncompressedSize))
	assert.DeepEqual(t, out[:insertPosTarget], literals)

	expected := make([]byte, stringLen)
	for i := 0; i < stringLen; i++ {
		if i < distance {
			expected[i] = literals[stringPos+i]
		} else {
			expected[i] = expected[i-distance]
		}
	}
	assert.DeepEqual(t, out[insertPosTarget:insertPosTarget+stringLen], expected)
}
