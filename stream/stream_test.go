package stream

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestBufferTypedReads(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 'h', 'i', 0x00, 0xFF}
	s := NewBuffer(data)

	assert.Equal(t, s.Size(), int64(len(data)))

	be32, err := s.ReadUint32BE()
	assert.NilError(t, err)
	assert.Equal(t, be32, uint32(0x01020304))

	str, err := s.ReadCString()
	assert.NilError(t, err)
	assert.Equal(t, str, "hi")

	b, err := s.ReadUint8()
	assert.NilError(t, err)
	assert.Equal(t, b, uint8(0xFF))

	_, err = s.ReadUint8()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestSeekPastEndThenRead(t *testing.T) {
	s := NewBuffer([]byte{1, 2, 3})
	assert.NilError(t, s.SeekAbs(10))
	assert.Equal(t, s.Pos(), int64(10))
	_, err := s.ReadUint8()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestLittleVsBigEndian(t *testing.T) {
	s := NewBuffer([]byte{0x00, 0x01})
	le, err := s.ReadUint16LE()
	assert.NilError(t, err)
	assert.Equal(t, le, uint16(0x0100))

	s = NewBuffer([]byte{0x00, 0x01})
	be, err := s.ReadUint16BE()
	assert.NilError(t, err)
	assert.Equal(t, be, uint16(0x0001))
}

func TestWriterRoundTrip(t *testing.T) {
	var buf []byte
	sink := &byteSink{&buf}
	w := NewWriter(sink)
	assert.NilError(t, w.WriteUint32BE(0xDEADBEEF))
	assert.NilError(t, w.WriteUint16LE(0x1234))
	assert.Equal(t, w.Pos(), int64(6))

	s := NewBuffer(buf)
	v, err := s.ReadUint32BE()
	assert.NilError(t, err)
	assert.Equal(t, v, uint32(0xDEADBEEF))
	v2, err := s.ReadUint16LE()
	assert.NilError(t, err)
	assert.Equal(t, v2, uint16(0x1234))
}

type byteSink struct {
	buf *[]byte
}

func (b *byteSink) Write(p []byte) (int, error) {
	*b.buf = append(*b.buf, p...)
	return len(p), nil
}
