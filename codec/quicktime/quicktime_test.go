package quicktime

import (
	"bytes"
	"encoding/binary"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/gomohawk/mohk/stream"
)

func be32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func TestRewriteSTCOOffsets(t *testing.T) {
	var data []byte
	data = append(data, be32(24)...) // atom size: 8 header + 4 + 4 + 2*4
	data = append(data, []byte("stco")...)
	data = append(data, []byte{0, 0, 0, 0}...) // version/flags
	data = append(data, be32(2)...)             // chunk count
	data = append(data, be32(0x1040)...)
	data = append(data, be32(0x2040)...)

	var out bytes.Buffer
	w := stream.NewWriter(&out)
	err := Rewrite(stream.NewBuffer(data), w, 0x1000)
	assert.NilError(t, err)

	result := out.Bytes()
	entry0 := binary.BigEndian.Uint32(result[16:20])
	entry1 := binary.BigEndian.Uint32(result[20:24])
	assert.Equal(t, entry0, uint32(0x40))
	assert.Equal(t, entry1, uint32(0x1040))
}

func TestRewriteRecursesIntoContainers(t *testing.T) {
	// moov containing a single stco child.
	inner := append(be32(20), []byte("stco")...)
	inner = append(inner, []byte{0, 0, 0, 0}...)
	inner = append(inner, be32(1)...)
	inner = append(inner, be32(0x500)...)

	var data []byte
	data = append(data, be32(uint32(8+len(inner)))...)
	data = append(data, []byte("moov")...)
	data = append(data, inner...)

	var out bytes.Buffer
	w := stream.NewWriter(&out)
	err := Rewrite(stream.NewBuffer(data), w, 0x100)
	assert.NilError(t, err)

	result := out.Bytes()
	// moov header (8) + stco header (8) + version/flags(4) + count(4) = 24
	entry := binary.BigEndian.Uint32(result[24:28])
	assert.Equal(t, entry, uint32(0x400))
}
