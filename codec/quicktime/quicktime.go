// Package quicktime rewrites the absolute stco chunk-offset atom inside a
// QuickTime movie that has been extracted from a Mohawk archive, so its
// chunk offsets are relative to the extracted file rather than the
// enclosing container.
package quicktime

import (
	"io"

	"github.com/gomohawk/mohk"
	"github.com/gomohawk/mohk/stream"
)

var (
	ErrFormatInvalid = mohk.ErrFormatInvalid
	WrapIO           = mohk.WrapIO
)

var containerTags = map[string]bool{
	"moov": true, "trak": true, "mdia": true, "minf": true, "stbl": true,
}

// Rewrite walks every top-level atom in src and writes it to dst,
// decrementing every stco entry it finds (at any nesting depth) by
// resOffset.
func Rewrite(src *stream.Stream, dst *stream.Writer, resOffset uint32) error {
	for {
		if err := rewriteAtom(src, dst, resOffset); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// rewriteAtom reads and rewrites a single atom (and, for known container
// tags, recurses into its children) and returns io.EOF once the source is
// exhausted at an atom boundary.
func rewriteAtom(src *stream.Stream, dst *stream.Writer, resOffset uint32) error {
	size, err := src.ReadUint32BE()
	if err != nil {
		return io.EOF
	}
	tagBytes, err := src.ReadBytes(4)
	if err != nil {
		return WrapIO(err, "quicktime: read atom tag")
	}
	tag := string(tagBytes)

	if err := dst.WriteUint32BE(size); err != nil {
		return WrapIO(err, "quicktime: write atom size")
	}
	if err := dst.WriteBytes(tagBytes); err != nil {
		return WrapIO(err, "quicktime: write atom tag")
	}

	if size < 8 {
		return ErrFormatInvalid("quicktime: atom %q has implausible size %d", tag, size)
	}
	remaining := int64(size) - 8

	if containerTags[tag] {
		// The children occupy the remaining bytes; rewrite them in place
		// by recursing atom-by-atom until this container's span is spent.
		end := src.Pos() + remaining
		for src.Pos() < end {
			if err := rewriteAtom(src, dst, resOffset); err != nil && err != io.EOF {
				return err
			}
		}
		return nil
	}

	if tag == "stco" {
		return rewriteSTCO(src, dst, resOffset, remaining)
	}

	body, err := src.ReadBytes(int(remaining))
	if err != nil {
		return WrapIO(err, "quicktime: read atom %q body", tag)
	}
	if err := dst.WriteBytes(body); err != nil {
		return WrapIO(err, "quicktime: write atom %q body", tag)
	}
	return nil
}

func rewriteSTCO(src *stream.Stream, dst *stream.Writer, resOffset uint32, remaining int64) error {
	versionFlags, err := src.ReadBytes(4)
	if err != nil {
		return WrapIO(err, "quicktime: read stco version/flags")
	}
	if err := dst.WriteBytes(versionFlags); err != nil {
		return WrapIO(err, "quicktime: write stco version/flags")
	}

	chunkCount, err := src.ReadUint32BE()
	if err != nil {
		return WrapIO(err, "quicktime: read stco chunk count")
	}
	if err := dst.WriteUint32BE(chunkCount); err != nil {
		return WrapIO(err, "quicktime: write stco chunk count")
	}

	for i := uint32(0); i < chunkCount; i++ {
		offset, err := src.ReadUint32BE()
		if err != nil {
			return WrapIO(err, "quicktime: read stco entry %d", i)
		}
		if err := dst.WriteUint32BE(offset - resOffset); err != nil {
			return WrapIO(err, "quicktime: write stco entry %d", i)
		}
	}
	return nil
}
