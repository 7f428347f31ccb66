package sound

import (
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
func be16(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

func TestDecodeMohawkWavePCM(t *testing.T) {
	var data []byte
	data = append(data, []byte("MHWK")...)
	data = append(data, be32(0)...) // file size, ignored
	data = append(data, []byte("WAVE")...)

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	var dataChunk []byte
	dataChunk = append(dataChunk, be16(22050)...) // sample rate
	dataChunk = append(dataChunk, be32(0)...)     // sample count, ignored
	dataChunk = append(dataChunk, 16, 1)          // bitsPerSample, channels
	dataChunk = append(dataChunk, be16(0)...)     // encoding: PCM
	dataChunk = append(dataChunk, make([]byte, 10)...) // loop fields
	dataChunk = append(dataChunk, payload...)

	data = append(data, []byte("Data")...)
	data = append(data, be32(uint32(len(dataChunk)))...)
	data = append(data, dataChunk...)

	decoded, err := DecodeMohawkWave(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.Assert(t, decoded.RIFF != nil)
	assert.DeepEqual(t, decoded.RIFF[:4], []byte("RIFF"))
	assert.DeepEqual(t, decoded.RIFF[len(decoded.RIFF)-len(payload):], payload)
}

func TestDecodeMystWaveRIFFPassthrough(t *testing.T) {
	data := append([]byte("RIFF"), []byte("....WAVEfmt ")...)
	decoded, err := DecodeMystWave(data)
	assert.NilError(t, err)
	assert.DeepEqual(t, decoded.RIFF, data)
}

func TestExtractMIDISkipsPrgAndCopiesTracks(t *testing.T) {
	var data []byte
	data = append(data, []byte("MHWK")...)
	data = append(data, be32(0)...)
	data = append(data, []byte("MIDI")...)

	data = append(data, []byte("MThd")...)
	data = append(data, be32(6)...)
	data = append(data, []byte{0, 0, 0, 1, 0, 96}...)

	data = append(data, []byte("Prg#")...)
	data = append(data, be32(2)...)
	data = append(data, []byte{0, 0}...)

	data = append(data, []byte("MTrk")...)
	data = append(data, be32(3)...)
	data = append(data, []byte{0x90, 0x40, 0x40}...)
	data = append(data, 0) // odd-size alignment pad, not part of the SMF

	out, err := ExtractMIDI(stream.NewBuffer(data))
	assert.NilError(t, err)
	assert.DeepEqual(t, out[:4], []byte("MThd"))
	assert.Assert(t, !contains(out, []byte("Prg#")))
	assert.Assert(t, contains(out, []byte("MTrk")))
}

func contains(haystack, needle []byte) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
