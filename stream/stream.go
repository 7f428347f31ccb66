// Package stream provides a seekable byte-source abstraction with typed
// big/little-endian integer reads and writes, used throughout mohk to walk
// the Mohawk archive's offset-chained tables and the binary payloads they
// point at.
//
// Implementation note: typed reads decode field-by-field with
// encoding/binary rather than reflecting over a whole struct, since the
// fields here are read individually and interleaved with seeks dictated by
// the archive format.
package stream

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ErrEndOfStream is returned when a read runs past the end of the
// underlying source.
var ErrEndOfStream = errors.New("stream: read past end of stream")

// Stream is a seekable byte source. It is backed either by an *os.File
// (NewFile) or by an in-memory buffer (NewBuffer); both expose the same
// typed read surface.
type Stream struct {
	r    io.ReadSeeker
	size int64
}

// NewFile builds a file-backed Stream. The file's current size is read
// once at construction time.
func NewFile(f *os.File) (*Stream, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stream: stat")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "stream: seek")
	}
	return &Stream{r: f, size: info.Size()}, nil
}

// NewBuffer builds an in-memory buffer-backed Stream over data. The caller
// retains no ownership expectations; the Stream does not mutate data.
func NewBuffer(data []byte) *Stream {
	return &Stream{r: bytes.NewReader(data), size: int64(len(data))}
}

// Pos returns the current read position.
func (s *Stream) Pos() int64 {
	pos, _ := s.r.Seek(0, io.SeekCurrent)
	return pos
}

// Size returns the total size of the underlying source.
func (s *Stream) Size() int64 {
	return s.size
}

// SeekAbs seeks to an absolute offset from the start of the stream. Seeking
// past the end is permitted; a subsequent read will fail.
func (s *Stream) SeekAbs(offset int64) error {
	_, err := s.r.Seek(offset, io.SeekStart)
	return errors.Wrap(err, "stream: seek")
}

// SeekRel seeks relative to the current position.
func (s *Stream) SeekRel(delta int64) error {
	_, err := s.r.Seek(delta, io.SeekCurrent)
	return errors.Wrap(err, "stream: seek")
}

// SeekEnd seeks relative to the end of the stream (delta is typically <= 0).
func (s *Stream) SeekEnd(delta int64) error {
	_, err := s.r.Seek(delta, io.SeekEnd)
	return errors.Wrap(err, "stream: seek")
}

// ReadBytes reads n raw bytes, returning an owned copy.
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, ErrEndOfStream
	}
	return buf, nil
}

// ReadUint8 reads one unsigned byte.
func (s *Stream) ReadUint8() (uint8, error) {
	b, err := s.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 reads one signed byte.
func (s *Stream) ReadInt8() (int8, error) {
	b, err := s.ReadUint8()
	return int8(b), err
}

func (s *Stream) readFixed(n int, order binary.ByteOrder, dst interface{}) error {
	b, err := s.ReadBytes(n)
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(b), order, dst)
}

// ReadUint16LE reads a little-endian unsigned 16-bit integer.
func (s *Stream) ReadUint16LE() (v uint16, err error) {
	err = s.readFixed(2, binary.LittleEndian, &v)
	return
}

// ReadUint16BE reads a big-endian unsigned 16-bit integer.
func (s *Stream) ReadUint16BE() (v uint16, err error) {
	err = s.readFixed(2, binary.BigEndian, &v)
	return
}

// ReadInt16LE reads a little-endian signed 16-bit integer.
func (s *Stream) ReadInt16LE() (v int16, err error) {
	err = s.readFixed(2, binary.LittleEndian, &v)
	return
}

// ReadInt16BE reads a big-endian signed 16-bit integer.
func (s *Stream) ReadInt16BE() (v int16, err error) {
	err = s.readFixed(2, binary.BigEndian, &v)
	return
}

// ReadUint32LE reads a little-endian unsigned 32-bit integer.
func (s *Stream) ReadUint32LE() (v uint32, err error) {
	err = s.readFixed(4, binary.LittleEndian, &v)
	return
}

// ReadUint32BE reads a big-endian unsigned 32-bit integer.
func (s *Stream) ReadUint32BE() (v uint32, err error) {
	err = s.readFixed(4, binary.BigEndian, &v)
	return
}

// ReadInt32LE reads a little-endian signed 32-bit integer.
func (s *Stream) ReadInt32LE() (v int32, err error) {
	err = s.readFixed(4, binary.LittleEndian, &v)
	return
}

// ReadInt32BE reads a big-endian signed 32-bit integer.
func (s *Stream) ReadInt32BE() (v int32, err error) {
	err = s.readFixed(4, binary.BigEndian, &v)
	return
}

// ReadCString reads bytes up to and including a terminating NUL, and
// returns the bytes before it as an opaque string (no charset assumed).
func (s *Stream) ReadCString() (string, error) {
	var buf []byte
	for {
		b, err := s.ReadUint8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// Writer is the write-side counterpart of Stream: a forward-only,
// position-tracking sink with the symmetric typed writes.
type Writer struct {
	w   io.Writer
	pos int64
}

// NewWriter wraps an io.Writer (typically an *os.File) for typed,
// position-tracked writes.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Pos returns the number of bytes written so far.
func (w *Writer) Pos() int64 {
	return w.pos
}

// WriteBytes writes raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) error {
	n, err := w.w.Write(b)
	w.pos += int64(n)
	return errors.Wrap(err, "stream: write")
}

// WriteUint8 writes one unsigned byte.
func (w *Writer) WriteUint8(v uint8) error {
	return w.WriteBytes([]byte{v})
}

func (w *Writer) writeFixed(order binary.ByteOrder, v interface{}) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, order, v); err != nil {
		return errors.Wrap(err, "stream: encode")
	}
	return w.WriteBytes(buf.Bytes())
}

// WriteUint16LE writes a little-endian unsigned 16-bit integer.
func (w *Writer) WriteUint16LE(v uint16) error { return w.writeFixed(binary.LittleEndian, v) }

// WriteUint16BE writes a big-endian unsigned 16-bit integer.
func (w *Writer) WriteUint16BE(v uint16) error { return w.writeFixed(binary.BigEndian, v) }

// WriteUint32LE writes a little-endian unsigned 32-bit integer.
func (w *Writer) WriteUint32LE(v uint32) error { return w.writeFixed(binary.LittleEndian, v) }

// WriteUint32BE writes a big-endian unsigned 32-bit integer.
func (w *Writer) WriteUint32BE(v uint32) error { return w.writeFixed(binary.BigEndian, v) }
