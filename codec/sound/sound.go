// Package sound decodes Mohawk WAVE container payloads (PCM, IMA-ADPCM,
// and MPEG-1 Layer II branches) into RIFF WAVE or raw MPEG output, and
// extracts Mohawk MIDI payloads into Standard MIDI Files.
package sound

import (
	"bytes"
	"encoding/binary"

	"github.com/gomohawk/mohk"
	"github.com/gomohawk/mohk/stream"
)

var (
	ErrFormatInvalid = mohk.ErrFormatInvalid
	ErrUnsupported   = mohk.ErrUnsupported
	WrapIO           = mohk.WrapIO
)

const (
	encodingPCM      = 0
	encodingADPCM    = 1
	encodingMPEGLayerII = 2
)

// Decoded is the result of decoding a Mohawk WAVE resource: either a
// complete RIFF WAVE buffer, or a raw MPEG payload destined for a
// .mp3-suffixed file.
type Decoded struct {
	RIFF     []byte // non-nil for PCM/ADPCM
	MPEGData []byte // non-nil for MPEG-1 Layer II
}

// DecodeMohawkWave parses the Mohawk WAVE container and decodes its Data
// chunk.
func DecodeMohawkWave(s *stream.Stream) (Decoded, error) {
	if err := expectTag(s, "MHWK"); err != nil {
		return Decoded{}, err
	}
	if _, err := s.ReadUint32BE(); err != nil { // file size, ignored
		return Decoded{}, WrapIO(err, "sound: read file size")
	}
	if err := expectTag(s, "WAVE"); err != nil {
		return Decoded{}, err
	}

	for {
		tagBytes, err := s.ReadBytes(4)
		if err != nil {
			return Decoded{}, ErrFormatInvalid("sound: no Data chunk found")
		}
		size, err := s.ReadUint32BE()
		if err != nil {
			return Decoded{}, WrapIO(err, "sound: read chunk size")
		}
		if string(tagBytes) != "Data" {
			if err := s.SeekRel(int64(size)); err != nil {
				return Decoded{}, WrapIO(err, "sound: skip chunk %q", tagBytes)
			}
			continue
		}
		return decodeDataChunk(s, size)
	}
}

func expectTag(s *stream.Stream, want string) error {
	got, err := s.ReadBytes(4)
	if err != nil {
		return WrapIO(err, "sound: read %s tag", want)
	}
	if string(got) != want {
		return ErrFormatInvalid("sound: expected %q tag, got %q", want, got)
	}
	return nil
}

func decodeDataChunk(s *stream.Stream, size uint32) (Decoded, error) {
	sampleRate, err := s.ReadUint16BE()
	if err != nil {
		return Decoded{}, WrapIO(err, "sound: read sample rate")
	}
	if _, err := s.ReadUint32BE(); err != nil { // sample count, ignored
		return Decoded{}, WrapIO(err, "sound: read sample count")
	}
	bitsPerSample, err := s.ReadUint8()
	if err != nil {
		return Decoded{}, WrapIO(err, "sound: read bits per sample")
	}
	channels, err := s.ReadUint8()
	if err != nil {
		return Decoded{}, WrapIO(err, "sound: read channels")
	}
	encoding, err := s.ReadUint16BE()
	if err != nil {
		return Decoded{}, WrapIO(err, "sound: read encoding")
	}
	if _, err := s.ReadBytes(2 + 4 + 4); err != nil { // loop count/start/end, ignored
		return Decoded{}, WrapIO(err, "sound: read loop fields")
	}

	const headerSize = 20
	if size < headerSize {
		return Decoded{}, ErrFormatInvalid("sound: Data chunk size %d too small", size)
	}
	payload, err := s.ReadBytes(int(size - headerSize))
	if err != nil {
		return Decoded{}, WrapIO(err, "sound: read audio payload")
	}

	switch encoding {
	case encodingPCM:
		riff := buildRIFFWave(payload, int(sampleRate), int(channels), int(bitsPerSample))
		return Decoded{RIFF: riff}, nil
	case encodingADPCM:
		pcm := decodeADPCM(payload, int(channels))
		riff := buildRIFFWave(pcm, int(sampleRate), int(channels), 16)
		return Decoded{RIFF: riff}, nil
	case encodingMPEGLayerII:
		return Decoded{MPEGData: payload}, nil
	default:
		return Decoded{}, ErrUnsupported("sound: unknown encoding %d", encoding)
	}
}

// buildRIFFWave wraps raw PCM sample bytes in a canonical RIFF/WAVE
// header. No library in the pack's importable dependency graph offers a
// WAVE muxer (only standalone reference files do), so this is stdlib
// binary.Write composing the fixed-size RIFF/fmt/data chunk layout.
func buildRIFFWave(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// DecodeMystWave dispatches RIFF-prefixed payloads verbatim (already a
// complete WAVE file) and everything else through the Mohawk WAVE
// decoder.
func DecodeMystWave(data []byte) (Decoded, error) {
	if len(data) >= 4 && string(data[:4]) == "RIFF" {
		return Decoded{RIFF: data}, nil
	}
	return DecodeMohawkWave(stream.NewBuffer(data))
}

// ExtractMIDI strips the Mohawk MIDI container and reassembles MThd +
// MTrk chunks (skipping Prg# chunks) into a Standard MIDI File, without
// the container's chunk alignment padding.
func ExtractMIDI(s *stream.Stream) ([]byte, error) {
	if err := expectTag(s, "MHWK"); err != nil {
		return nil, err
	}
	if _, err := s.ReadUint32BE(); err != nil {
		return nil, WrapIO(err, "midi: read file size")
	}
	if err := expectTag(s, "MIDI"); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	for {
		tagBytes, err := s.ReadBytes(4)
		if err != nil {
			break // EOF: end of chunk sequence
		}
		size, err := s.ReadUint32BE()
		if err != nil {
			return nil, WrapIO(err, "midi: read chunk size for %q", tagBytes)
		}
		body, err := s.ReadBytes(int(size))
		if err != nil {
			return nil, WrapIO(err, "midi: read chunk body for %q", tagBytes)
		}

		switch string(tagBytes) {
		case "MThd", "MTrk":
			out.Write(tagBytes)
			binary.Write(&out, binary.BigEndian, size)
			out.Write(body)
		case "Prg#":
			// skipped entirely
		default:
			return nil, ErrFormatInvalid("midi: unknown chunk tag %q", tagBytes)
		}

		if size%2 == 1 {
			if _, err := s.ReadBytes(1); err != nil { // container alignment pad, not part of the SMF
				break
			}
		}
	}
	return out.Bytes(), nil
}
