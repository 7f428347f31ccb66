package convert

import (
	"encoding/binary"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/gomohawk/mohk"
	"github.com/gomohawk/mohk/stream"
)

// buildSingleResourceArchive builds a minimal archive with one resource of
// the given tag, id 1, containing payload, for exercising convert's
// archive -> codec -> Output pipeline end to end.
func buildSingleResourceArchive(tag string, payload []byte) []byte {
	put32 := func(buf []byte, v uint32) []byte {
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], v)
		return append(buf, tmp[:]...)
	}
	put16 := func(buf []byte, v uint16) []byte {
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], v)
		return append(buf, tmp[:]...)
	}

	var b []byte
	b = put32(b, uint32(mohk.TagMHWK))
	b = put32(b, 0)
	b = put32(b, uint32(mohk.TagRSRC))
	b = put16(b, 0x0100)
	b = put16(b, 0)
	b = put32(b, 0)

	headerTailPos := len(b)
	b = put32(b, 0) // absOffset placeholder
	b = put16(b, 0) // fileTableOffset placeholder
	b = put16(b, 0)

	absOffset := len(b)
	typeEntryAt := absOffset + 4
	nameTableAt := typeEntryAt + 8
	resTableAt := nameTableAt + 2
	stringTableAt := resTableAt + 2 + 4

	b = put16(b, uint16(stringTableAt-absOffset)) // stringTableOffset
	b = put16(b, 1)                                // typeCount

	var tagVal uint32
	for _, c := range []byte(tag) {
		tagVal = tagVal<<8 | uint32(c)
	}
	b = put32(b, tagVal)
	b = put16(b, uint16(resTableAt-absOffset))
	b = put16(b, uint16(nameTableAt-absOffset))

	b = put16(b, 0) // name table: count=0

	b = put16(b, 1) // resource table: count=1
	b = put16(b, 1) // resID=1
	b = put16(b, 1) // index=1

	fileTableOffset := len(b) - absOffset
	b = put32(b, 1) // fileCount=1

	entryPos := len(b)
	b = put32(b, 0) // offset placeholder
	b = put16(b, uint16(len(payload)))
	b = append(b, 0, 0, 0, 0)

	payloadBase := len(b)
	b = append(b, payload...)

	binary.BigEndian.PutUint32(b[headerTailPos:headerTailPos+4], uint32(absOffset))
	binary.BigEndian.PutUint16(b[headerTailPos+4:headerTailPos+6], uint16(fileTableOffset))
	binary.BigEndian.PutUint32(b[entryPos:entryPos+4], uint32(payloadBase))

	return b
}

func TestConvertStringList(t *testing.T) {
	var payload []byte
	payload = append(payload, 0, 2) // count = 2
	payload = append(payload, []byte("hello\x00")...)
	payload = append(payload, []byte("wor\rld\x00")...)

	data := buildSingleResourceArchive("TEST", payload)
	a, err := mohk.OpenFrom(stream.NewBuffer(data))
	assert.NilError(t, err)
	defer a.Close()

	out, err := ConvertStringList(a, mohk.MakeTag("TEST"), 1)
	assert.NilError(t, err)
	assert.Equal(t, string(out.Data), `["hello","wor\nld"]`)
}

func TestConvertScript(t *testing.T) {
	var payload []byte
	payload = append(payload, 0, 0) // script count = 0

	data := buildSingleResourceArchive("CARD", payload)
	a, err := mohk.OpenFrom(stream.NewBuffer(data))
	assert.NilError(t, err)
	defer a.Close()

	out, err := ConvertScript(a, 1)
	assert.NilError(t, err)
	assert.Equal(t, out.Name, "CARD_1.txt")
}
