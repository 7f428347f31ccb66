// Package convert dispatches a looked-up archive resource to the codec
// selected by its type tag and writes the resulting contemporary file
// format: PNG bitmaps, Windows CUR cursors, WAV/MP3 audio, SMF MIDI,
// rewritten QuickTime movies, JSON string/name lists, and pretty-printed
// scripts.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/gomohawk/mohk"
	"github.com/gomohawk/mohk/codec/bitmap"
	"github.com/gomohawk/mohk/codec/cursor"
	"github.com/gomohawk/mohk/codec/lz"
	"github.com/gomohawk/mohk/codec/quicktime"
	"github.com/gomohawk/mohk/codec/riven"
	"github.com/gomohawk/mohk/codec/sound"
	"github.com/gomohawk/mohk/stream"
)

// bitmapLZUnpack unpacks an LZ-framed payload whose decompressed form is
// consumed whole rather than drawn through the image pipeline (WDIB's
// embedded BMP).
func bitmapLZUnpack(data []byte) ([]byte, error) {
	return lz.Decompress(stream.NewBuffer(data))
}

var (
	ErrUnsupported = mohk.ErrUnsupported
	ErrLookupMiss  = mohk.ErrLookupMiss
	WrapIO         = mohk.WrapIO
)

// Options is the flat configuration bag converters consult, populated
// from CLI flags.
type Options struct {
	Palette     uint16
	HasPalette  bool
	PaletteFile string
}

// Output is one converted artifact: a suggested file name and its bytes.
type Output struct {
	Name string
	Data []byte
}

// resolvePalette loads the external palette an 8-bit-or-smaller bitmap
// needs when it carries no embedded one, from either the primary archive
// or opts.PaletteFile.
func resolvePalette(a *mohk.Archive, opts Options) (color.Palette, error) {
	if !opts.HasPalette {
		return nil, nil
	}

	src := a
	if opts.PaletteFile != "" {
		alt, err := mohk.Open(opts.PaletteFile)
		if err != nil {
			return nil, err
		}
		defer alt.Close()
		src = alt
	}

	data, err := src.GetResource(mohk.TagTPAL, opts.Palette)
	if err != nil {
		return nil, err
	}
	return bitmap.DecodeExternalPalette(stream.NewBuffer(data))
}

// ConvertBitmap converts a tBMP resource to a PNG.
func ConvertBitmap(a *mohk.Archive, id uint16, opts Options) (Output, error) {
	data, err := a.GetResource(mohk.TagTBMP, id)
	if err != nil {
		return Output{}, err
	}
	pal, err := resolvePalette(a, opts)
	if err != nil {
		return Output{}, err
	}
	img, err := bitmap.Decode(stream.NewBuffer(data), pal)
	if err != nil {
		return Output{}, err
	}
	png, err := bitmap.EncodePNG(img)
	if err != nil {
		return Output{}, err
	}
	return Output{Name: fmt.Sprintf("tBMP_%d.png", id), Data: png}, nil
}

// ConvertBitmapSet converts a tBMP resource that is a bitmap-set (a
// framed collection of sub-images) into one PNG per sub-image.
func ConvertBitmapSet(a *mohk.Archive, id uint16, opts Options) ([]Output, error) {
	data, err := a.GetResource(mohk.TagTBMP, id)
	if err != nil {
		return nil, err
	}
	pal, err := resolvePalette(a, opts)
	if err != nil {
		return nil, err
	}
	imgs, err := bitmap.DecodeSet(stream.NewBuffer(data), pal)
	if err != nil {
		return nil, err
	}
	outs := make([]Output, len(imgs))
	for i, img := range imgs {
		png, err := bitmap.EncodePNG(img)
		if err != nil {
			return nil, err
		}
		outs[i] = Output{Name: fmt.Sprintf("tBMP_%d_%d.png", id, i), Data: png}
	}
	return outs, nil
}

// ConvertMystBitmap converts a WDIB resource: its payload is LZ-unpacked
// here with codec/lz directly, not through codec/bitmap, since WDIB's
// unpacked form is already a complete Windows BMP and is written through
// verbatim instead of being drawn.
func ConvertMystBitmap(a *mohk.Archive, id uint16) (Output, error) {
	data, err := a.GetResource(mohk.TagWDIB, id)
	if err != nil {
		return Output{}, err
	}
	// WDIB carries the same LZ framing as tBMP's pixel stream, but over
	// the whole BMP file rather than a raw pixel buffer.
	unpacked, err := bitmapLZUnpack(data)
	if err != nil {
		return Output{}, err
	}
	return Output{Name: fmt.Sprintf("WDIB_%d.bmp", id), Data: unpacked}, nil
}

// ConvertCursor converts an MSND-adjacent Mac cursor resource (32+32+4
// bytes) into a Windows CUR.
func ConvertCursor(a *mohk.Archive, tag mohk.Tag, id uint16) (Output, error) {
	data, err := a.GetResource(tag, id)
	if err != nil {
		return Output{}, err
	}
	if len(data) < 68 {
		return Output{}, ErrUnsupported("convert: cursor resource %s %d too short", tag, id)
	}
	icon := data[0:32]
	mask := data[32:64]
	hotspotY := uint16(data[64])<<8 | uint16(data[65])
	hotspotX := uint16(data[66])<<8 | uint16(data[67])
	out, err := cursor.Transcode(icon, mask, hotspotY, hotspotX)
	if err != nil {
		return Output{}, err
	}
	return Output{Name: fmt.Sprintf("%s_%d.cur", tag, id), Data: out}, nil
}

// ConvertMovie rewrites a tMOV resource's absolute stco offsets relative
// to its own extracted offset.
func ConvertMovie(a *mohk.Archive, id uint16) (Output, error) {
	offset, err := a.ResourceOffset(mohk.TagTMOV, id)
	if err != nil {
		return Output{}, err
	}
	data, err := a.GetResource(mohk.TagTMOV, id)
	if err != nil {
		return Output{}, err
	}
	var out bytes.Buffer
	w := stream.NewWriter(&out)
	if err := quicktime.Rewrite(stream.NewBuffer(data), w, offset); err != nil {
		return Output{}, err
	}
	return Output{Name: fmt.Sprintf("tMOV_%d.mov", id), Data: out.Bytes()}, nil
}

// ConvertSound converts an MSND (Myst sound) resource to .wav or .mp3.
func ConvertSound(a *mohk.Archive, id uint16) (Output, error) {
	data, err := a.GetResource(mohk.TagMSND, id)
	if err != nil {
		return Output{}, err
	}
	decoded, err := sound.DecodeMystWave(data)
	if err != nil {
		return Output{}, err
	}
	if decoded.MPEGData != nil {
		return Output{Name: fmt.Sprintf("MSND_%d.mp3", id), Data: decoded.MPEGData}, nil
	}
	return Output{Name: fmt.Sprintf("MSND_%d.wav", id), Data: decoded.RIFF}, nil
}

// ConvertWave converts a tWAV (Mohawk WAVE) resource to .wav or .mp3.
func ConvertWave(a *mohk.Archive, id uint16) (Output, error) {
	data, err := a.GetResource(mohk.TagTWAV, id)
	if err != nil {
		return Output{}, err
	}
	decoded, err := sound.DecodeMohawkWave(stream.NewBuffer(data))
	if err != nil {
		return Output{}, err
	}
	if decoded.MPEGData != nil {
		return Output{Name: fmt.Sprintf("tWAV_%d.mp3", id), Data: decoded.MPEGData}, nil
	}
	return Output{Name: fmt.Sprintf("tWAV_%d.wav", id), Data: decoded.RIFF}, nil
}

// ConvertMIDI converts a tMID (Mohawk MIDI) resource to .mid.
func ConvertMIDI(a *mohk.Archive, id uint16) (Output, error) {
	data, err := a.GetResource(mohk.TagTMID, id)
	if err != nil {
		return Output{}, err
	}
	smf, err := sound.ExtractMIDI(stream.NewBuffer(data))
	if err != nil {
		return Output{}, err
	}
	return Output{Name: fmt.Sprintf("tMID_%d.mid", id), Data: smf}, nil
}

// ConvertNameList converts a NAME resource to a JSON array of strings.
func ConvertNameList(a *mohk.Archive, id uint16) (Output, error) {
	data, err := a.GetResource(mohk.TagNAME, id)
	if err != nil {
		return Output{}, err
	}
	names, err := riven.DecodeNameList(stream.NewBuffer(data))
	if err != nil {
		return Output{}, err
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return Output{}, WrapIO(err, "convert: encode name list JSON")
	}
	return Output{Name: fmt.Sprintf("NAME_%d.json", id), Data: encoded}, nil
}

// ConvertStringList converts a resource of opaque CP-1252 strings to a
// JSON array, replacing \r with \n.
func ConvertStringList(a *mohk.Archive, tag mohk.Tag, id uint16) (Output, error) {
	data, err := a.GetResource(tag, id)
	if err != nil {
		return Output{}, err
	}
	s := stream.NewBuffer(data)
	count, err := s.ReadUint16BE()
	if err != nil {
		return Output{}, WrapIO(err, "convert: read string count")
	}
	decoder := charmap.Windows1252.NewDecoder()
	strs := make([]string, count)
	for i := range strs {
		raw, err := s.ReadCString()
		if err != nil {
			return Output{}, WrapIO(err, "convert: read string %d", i)
		}
		utf8, err := decoder.String(raw)
		if err != nil {
			return Output{}, WrapIO(err, "convert: decode CP-1252 string %d", i)
		}
		strs[i] = strings.ReplaceAll(utf8, "\r", "\n")
	}
	encoded, err := json.Marshal(strs)
	if err != nil {
		return Output{}, WrapIO(err, "convert: encode string list JSON")
	}
	return Output{Name: fmt.Sprintf("%s_%d.json", tag, id), Data: encoded}, nil
}

// ConvertScript converts a CARD resource's opcode script into pretty-printed text.
func ConvertScript(a *mohk.Archive, id uint16) (Output, error) {
	data, err := a.GetResource(mohk.TagCARD, id)
	if err != nil {
		return Output{}, err
	}
	text, err := riven.DecodeScripts(stream.NewBuffer(data))
	if err != nil {
		return Output{}, err
	}
	return Output{Name: fmt.Sprintf("CARD_%d.txt", id), Data: []byte(text)}, nil
}
