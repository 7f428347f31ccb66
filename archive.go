// Package mohk parses Mohawk resource archives — the container format used
// by Broderbund/Cyan adventure titles of the mid-1990s (Myst, Riven, and
// siblings) — and exposes random-access extraction of individual resource
// payloads by (four-character type tag, 16-bit numeric id).
//
// A fixed header is read field-by-field, offset tables are read into
// slices kept entirely in memory, and payload extraction seeks the backing
// source on demand rather than eagerly materializing every resource. Rather
// than hashing a path to a block-table entry, a Mohawk archive keys
// directly on a (tag, numeric id) pair via a chained type table, resource
// table, and name table.
package mohk

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gomohawk/mohk/stream"
)

// Logger is the package-level structured logger. It defaults to discarding
// output; callers opt into verbosity by replacing it or adjusting its level.
var Logger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(logDiscard{})
	return l
}()

type logDiscard struct{}

func (logDiscard) Write(p []byte) (int, error) { return len(p), nil }

const expectedVersion = 0x0100

type fileTableEntry struct {
	offset uint32
	size   uint32
	flags  uint8
}

// Resource describes one extractable payload: its absolute offset and
// effective size within the archive, and its optional name-table name.
type Resource struct {
	Offset   uint32
	Size     uint32
	Name     string
	HasName  bool
}

// Archive is an immutable, parsed Mohawk resource catalog. It holds its
// backing source open for the lifetime of the Archive; payloads are
// materialized into owned buffers on demand by GetResource.
type Archive struct {
	src      *stream.Stream
	file     *os.File // non-nil only when opened from a path
	fileSize int64

	fileTable []fileTableEntry
	types     map[Tag]map[uint16]Resource
}

// Open parses the Mohawk archive at path. The returned Archive must be
// closed with Close.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapIO(err, "mohk: open %q", path)
	}
	s, err := stream.NewFile(f)
	if err != nil {
		f.Close()
		return nil, WrapIO(err, "mohk: stat %q", path)
	}
	a, err := OpenFrom(s)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.file = f
	return a, nil
}

// OpenFrom parses a Mohawk archive already wrapped in a *stream.Stream
// (e.g. stream.NewBuffer for an in-memory archive). The returned Archive
// does not own src's backing file, if any; Close is a no-op in that case.
func OpenFrom(src *stream.Stream) (*Archive, error) {
	a := &Archive{src: src, fileSize: src.Size(), types: map[Tag]map[uint16]Resource{}}
	if err := a.parse(); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the archive's backing file handle, if any.
func (a *Archive) Close() error {
	if a.file != nil {
		return WrapIO(a.file.Close(), "mohk: close")
	}
	return nil
}

func (a *Archive) parse() error {
	s := a.src

	if err := a.src.SeekAbs(0); err != nil {
		return WrapIO(err, "mohk: seek header")
	}

	mhwk, err := s.ReadUint32BE()
	if err != nil {
		return WrapIO(err, "mohk: read MHWK tag")
	}
	if Tag(mhwk) != TagMHWK {
		return ErrFormatInvalid("mohk: not a Mohawk file (bad magic %08X)", mhwk)
	}

	if _, err := s.ReadUint32BE(); err != nil { // file size, ignored
		return WrapIO(err, "mohk: read file size")
	}

	rsrc, err := s.ReadUint32BE()
	if err != nil {
		return WrapIO(err, "mohk: read RSRC tag")
	}
	if Tag(rsrc) != TagRSRC {
		return ErrFormatInvalid("mohk: not a Mohawk resource file (bad type %08X)", rsrc)
	}

	version, err := s.ReadUint16BE()
	if err != nil {
		return WrapIO(err, "mohk: read version")
	}
	if version != expectedVersion {
		return ErrUnsupported("mohk: unsupported archive version 0x%04X", version)
	}

	if _, err := s.ReadUint16BE(); err != nil { // compaction, ignored
		return WrapIO(err, "mohk: read compaction")
	}
	if _, err := s.ReadUint32BE(); err != nil { // RSRC size, ignored
		return WrapIO(err, "mohk: read RSRC size")
	}

	absOffset, err := s.ReadUint32BE()
	if err != nil {
		return WrapIO(err, "mohk: read absOffset")
	}
	fileTableOffset, err := s.ReadUint16BE()
	if err != nil {
		return WrapIO(err, "mohk: read fileTableOffset")
	}
	if _, err := s.ReadUint16BE(); err != nil { // file table size, ignored
		return WrapIO(err, "mohk: read fileTableSize")
	}

	if err := a.readFileTable(int64(absOffset) + int64(fileTableOffset)); err != nil {
		return err
	}
	if err := a.readTypeTable(int64(absOffset)); err != nil {
		return err
	}

	Logger.WithField("types", len(a.types)).Debug("mohk: archive parsed")
	return nil
}

func (a *Archive) readFileTable(at int64) error {
	s := a.src
	if err := s.SeekAbs(at); err != nil {
		return WrapIO(err, "mohk: seek file table")
	}
	fileCount, err := s.ReadUint32BE()
	if err != nil {
		return WrapIO(err, "mohk: read file count")
	}

	a.fileTable = make([]fileTableEntry, fileCount)
	for i := range a.fileTable {
		offset, err := s.ReadUint32BE()
		if err != nil {
			return WrapIO(err, "mohk: read file table entry %d offset", i)
		}
		lowSize, err := s.ReadUint16BE()
		if err != nil {
			return WrapIO(err, "mohk: read file table entry %d size", i)
		}
		midSize, err := s.ReadUint8()
		if err != nil {
			return WrapIO(err, "mohk: read file table entry %d mid size", i)
		}
		flags, err := s.ReadUint8()
		if err != nil {
			return WrapIO(err, "mohk: read file table entry %d flags", i)
		}
		if _, err := s.ReadUint16BE(); err != nil { // unknown, ignored
			return WrapIO(err, "mohk: read file table entry %d trailer", i)
		}

		size := uint32(lowSize) | uint32(midSize)<<16 | uint32(flags&0x07)<<24
		a.fileTable[i] = fileTableEntry{offset: offset, size: size, flags: flags}
	}
	return nil
}

func (a *Archive) readTypeTable(absOffset int64) error {
	s := a.src
	if err := s.SeekAbs(absOffset); err != nil {
		return WrapIO(err, "mohk: seek type table")
	}
	stringTableOffset, err := s.ReadUint16BE()
	if err != nil {
		return WrapIO(err, "mohk: read string table offset")
	}
	typeCount, err := s.ReadUint16BE()
	if err != nil {
		return WrapIO(err, "mohk: read type count")
	}

	for i := 0; i < int(typeCount); i++ {
		tagVal, err := s.ReadUint32BE()
		if err != nil {
			return WrapIO(err, "mohk: read type %d tag", i)
		}
		resTableOffset, err := s.ReadUint16BE()
		if err != nil {
			return WrapIO(err, "mohk: read type %d resource table offset", i)
		}
		nameTableOffset, err := s.ReadUint16BE()
		if err != nil {
			return WrapIO(err, "mohk: read type %d name table offset", i)
		}

		nameTable, err := a.readNameTable(absOffset+int64(nameTableOffset), absOffset+int64(stringTableOffset))
		if err != nil {
			return errors.Wrapf(err, "mohk: name table for type %d", i)
		}

		resMap, err := a.readResourceTable(absOffset+int64(resTableOffset), Tag(tagVal), nameTable)
		if err != nil {
			return errors.Wrapf(err, "mohk: resource table for type %s", Tag(tagVal))
		}
		a.types[Tag(tagVal)] = resMap

		// Each type-table entry is 8 bytes (tag, resTableOffset, nameTableOffset);
		// the 2-field header before them is 4 bytes, so entry i+1 starts here.
		if err := s.SeekAbs(absOffset + int64(i+1)*8 + 4); err != nil {
			return WrapIO(err, "mohk: seek next type entry")
		}
	}
	return nil
}

func (a *Archive) readNameTable(at, stringTableAt int64) (map[uint16]string, error) {
	s := a.src
	if err := s.SeekAbs(at); err != nil {
		return nil, WrapIO(err, "mohk: seek name table")
	}
	count, err := s.ReadUint16BE()
	if err != nil {
		return nil, WrapIO(err, "mohk: read name count")
	}

	type pair struct{ nameOffset, index uint16 }
	pairs := make([]pair, count)
	for i := range pairs {
		nameOffset, err := s.ReadUint16BE()
		if err != nil {
			return nil, WrapIO(err, "mohk: read name offset %d", i)
		}
		index, err := s.ReadUint16BE()
		if err != nil {
			return nil, WrapIO(err, "mohk: read name index %d", i)
		}
		pairs[i] = pair{nameOffset, index}
	}

	names := make(map[uint16]string, len(pairs))
	for _, p := range pairs {
		if err := s.SeekAbs(stringTableAt + int64(p.nameOffset)); err != nil {
			return nil, WrapIO(err, "mohk: seek name string")
		}
		name, err := s.ReadCString()
		if err != nil {
			return nil, WrapIO(err, "mohk: read name string")
		}
		names[p.index] = name
	}
	return names, nil
}

func (a *Archive) readResourceTable(at int64, tag Tag, names map[uint16]string) (map[uint16]Resource, error) {
	s := a.src
	if err := s.SeekAbs(at); err != nil {
		return nil, WrapIO(err, "mohk: seek resource table")
	}
	count, err := s.ReadUint16BE()
	if err != nil {
		return nil, WrapIO(err, "mohk: read resource count")
	}

	resMap := make(map[uint16]Resource, count)
	for i := 0; i < int(count); i++ {
		resID, err := s.ReadUint16BE()
		if err != nil {
			return nil, WrapIO(err, "mohk: read resource id %d", i)
		}
		index, err := s.ReadUint16BE()
		if err != nil {
			return nil, WrapIO(err, "mohk: read resource index %d", i)
		}
		if index < 1 || int(index) > len(a.fileTable) {
			return nil, ErrOutOfRange("mohk: resource %s %d references out-of-range file table index %d", tag, resID, index)
		}

		entry := a.fileTable[index-1]
		size := entry.size
		if tag == TagTMOV {
			if int(index) == len(a.fileTable) {
				size = uint32(a.fileSize) - entry.offset
			} else {
				size = a.fileTable[index].offset - entry.offset
			}
		}

		name, hasName := names[index]
		resMap[resID] = Resource{Offset: entry.offset, Size: size, Name: name, HasName: hasName}
	}
	return resMap, nil
}

// Types returns the set of resource type tags present in the archive, in
// deterministic ascending order by tag value.
func (a *Archive) Types() []Tag {
	out := make([]Tag, 0, len(a.types))
	for t := range a.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasResource reports whether tag/id names a resource in the archive.
func (a *Archive) HasResource(tag Tag, id uint16) bool {
	m, ok := a.types[tag]
	if !ok {
		return false
	}
	_, ok = m[id]
	return ok
}

// IDs returns the sorted, ascending list of resource ids for tag.
func (a *Archive) IDs(tag Tag) []uint16 {
	m := a.types[tag]
	out := make([]uint16, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (a *Archive) lookup(tag Tag, id uint16) (Resource, error) {
	m, ok := a.types[tag]
	if !ok {
		return Resource{}, ErrLookupMiss("mohk: no resources of type %s", tag)
	}
	r, ok := m[id]
	if !ok {
		return Resource{}, ErrLookupMiss("mohk: resource %s %d not found", tag, id)
	}
	return r, nil
}

// GetResource returns an owned buffer containing the effective payload of
// tag/id, read from its offset in the archive.
func (a *Archive) GetResource(tag Tag, id uint16) ([]byte, error) {
	r, err := a.lookup(tag, id)
	if err != nil {
		return nil, err
	}
	if int64(r.Offset)+int64(r.Size) > a.fileSize {
		return nil, ErrOutOfRange("mohk: resource %s %d (offset %d, size %d) exceeds archive size %d", tag, id, r.Offset, r.Size, a.fileSize)
	}
	if err := a.src.SeekAbs(int64(r.Offset)); err != nil {
		return nil, WrapIO(err, "mohk: seek resource %s %d", tag, id)
	}
	data, err := a.src.ReadBytes(int(r.Size))
	if err != nil {
		return nil, WrapIO(err, "mohk: read resource %s %d", tag, id)
	}
	return data, nil
}

// ResourceOffset returns the absolute file offset of tag/id's payload.
// Needed by the QuickTime atom rewriter to rebase absolute chunk offsets.
func (a *Archive) ResourceOffset(tag Tag, id uint16) (uint32, error) {
	r, err := a.lookup(tag, id)
	if err != nil {
		return 0, err
	}
	return r.Offset, nil
}
