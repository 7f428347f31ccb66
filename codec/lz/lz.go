// Package lz decodes the sliding-window LZSS variant used for tBMP/WDIB
// pixel streams and bitmap-set framing: 6-bit length, 10-bit position, a
// fixed 1024-byte dictionary, and a history window that is the output
// buffer itself rather than a separate ring buffer.
package lz

import (
	"github.com/gomohawk/mohk"
	"github.com/gomohawk/mohk/stream"
)

var (
	ErrOutOfRange = mohk.ErrOutOfRange
	WrapIO        = mohk.WrapIO
)

const (
	lengthBits = 6
	minString  = 3
	posBits    = 10
	maxString  = (1 << lengthBits) + minString - 1 // 66
	bufferSize = 1 << posBits                      // 1024
	posMask    = bufferSize - 1
)

// Decompress reads a length-framed LZ stream from s (uncompressedSize u32
// BE, compressed size u32 BE ignored, dictSize u16 BE) and returns exactly
// uncompressedSize decoded bytes.
func Decompress(s *stream.Stream) ([]byte, error) {
	uncompressedSize, err := s.ReadUint32BE()
	if err != nil {
		return nil, WrapIO(err, "lz: read uncompressed size")
	}
	if _, err := s.ReadUint32BE(); err != nil { // compressed size, ignored
		return nil, WrapIO(err, "lz: read compressed size")
	}
	dictSize, err := s.ReadUint16BE()
	if err != nil {
		return nil, WrapIO(err, "lz: read dict size")
	}
	if dictSize != bufferSize {
		return nil, ErrOutOfRange("lz: dictionary size %d unsupported", dictSize)
	}
	return decode(s, uncompressedSize)
}

// decode runs the core sliding-window loop. The output slice doubles as
// the history window: every backward copy indexes into bytes already
// written to out, never into a separate ring buffer.
func decode(s *stream.Stream, uncompressedSize uint32) ([]byte, error) {
	outLen := uncompressedSize
	if outLen < bufferSize {
		outLen = bufferSize
	}
	out := make([]byte, outLen)

	var (
		flags     uint16
		bytesOut  uint32
		insertPos uint32 // 0..posMask, position within the current window tile
		buf       uint32 // origin of the current window tile within out
		dst       uint32 // write cursor within out
	)

	for bytesOut < uncompressedSize {
		flags >>= 1
		if flags&0x100 == 0 {
			b, err := s.ReadUint8()
			if err != nil {
				break // exhausted stream; return what decoded so far
			}
			flags = uint16(b) | 0xFF00
		}

		if flags&1 == 1 {
			b, err := s.ReadUint8()
			if err != nil {
				break
			}
			out[dst] = b
			dst++
			bytesOut++
			insertPos++
			if insertPos >= bufferSize {
				insertPos = 0
				buf += bufferSize
			}
			continue
		}

		offLen, err := s.ReadUint16BE()
		if err != nil {
			break
		}
		stringLen := uint32(offLen>>posBits) + minString
		stringPos := (uint32(offLen) + maxString) & posMask

		bytesOut += stringLen
		if bytesOut > uncompressedSize {
			stringLen -= bytesOut - uncompressedSize
			bytesOut = uncompressedSize
		}

		var srcBuf uint32
		if stringPos > insertPos && bytesOut >= bufferSize {
			srcBuf = buf - bufferSize
		} else {
			srcBuf = buf
		}

		if stringPos > insertPos && stringPos+stringLen > posMask {
			// Copy spans the window boundary: byte-by-byte, wrapping the
			// source position back to 0 within the same window tile.
			srcPos := stringPos
			for i := uint32(0); i < stringLen; i++ {
				out[dst] = out[srcBuf+srcPos]
				dst++
				srcPos++
				if srcPos >= bufferSize {
					srcPos = 0
				}
				insertPos++
				if insertPos >= bufferSize {
					insertPos = 0
					buf += bufferSize
				}
			}
			continue
		}

		for i := uint32(0); i < stringLen; i++ {
			out[dst] = out[srcBuf+stringPos+i]
			dst++
		}
		insertPos += stringLen
		if insertPos >= bufferSize {
			insertPos -= bufferSize
			buf += bufferSize
		}
	}

	return out[:uncompressedSize], nil
}
