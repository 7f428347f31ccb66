package riven

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomohawk/mohk/stream"
)

// stripMarker is an undocumented byte Riven name strings carry; its origin
// is unknown (it glyphs sensibly under neither CP-1252 nor MacRoman), so
// it is stripped rather than decoded.
const stripMarker = 0xBD

func stripMarkerBytes(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c != stripMarker {
			out = append(out, c)
		}
	}
	return out
}

// DecodeNameList parses a NAME resource: a count, that many string
// offsets, that many (skipped) unknown u16 values, then the strings
// themselves as C-strings at offset+count*4+2, each with stripMarker
// bytes removed.
func DecodeNameList(s *stream.Stream) ([]string, error) {
	count, err := s.ReadUint16BE()
	if err != nil {
		return nil, WrapIO(err, "riven: read name count")
	}

	offsets := make([]uint16, count)
	for i := range offsets {
		offsets[i], err = s.ReadUint16BE()
		if err != nil {
			return nil, WrapIO(err, "riven: read name offset %d", i)
		}
	}
	for i := 0; i < int(count); i++ {
		if _, err := s.ReadUint16BE(); err != nil { // unknown column, skipped
			return nil, WrapIO(err, "riven: read unknown column %d", i)
		}
	}

	base := int64(count)*4 + 2

	names := make([]string, count)
	for i, off := range offsets {
		if err := s.SeekAbs(base + int64(off)); err != nil {
			return nil, WrapIO(err, "riven: seek name %d", i)
		}
		raw, err := s.ReadCString()
		if err != nil {
			return nil, WrapIO(err, "riven: read name %d", i)
		}
		names[i] = string(stripMarkerBytes([]byte(raw)))
	}
	return names, nil
}

// scriptTypeLabel renders a script's u16 type code as a human-readable
// label; unrecognized codes fall back to their numeric form.
func scriptTypeLabel(t uint16) string {
	switch t {
	case 0:
		return "Mouse Down"
	case 1:
		return "Mouse Still Down"
	case 2:
		return "Mouse Up"
	case 3:
		return "Mouse Enter"
	case 4:
		return "Mouse Within"
	case 5:
		return "Mouse Leave"
	case 6:
		return "Load Card"
	case 7:
		return "Load Card (before rendering)"
	case 8:
		return "Leave Card"
	default:
		return fmt.Sprintf("Script Type %d", t)
	}
}

// commandName maps an opcode to the plain-text command name used by the
// default "name(arg, arg, ...)" rendering.
func commandName(op uint16) string {
	names := map[uint16]string{
		1: "DrawBitmap", 2: "GoToCard", 3: "PlaySound", 4: "SetVar", 5: "Enable", 6: "Disable",
		7: "Assign", 8: "Switch", 9: "EnableHotspot", 10: "DisableHotspot", 11: "PlayMovie",
		12: "StopMovie", 13: "FadeAmbient", 14: "ActivatePLST", 15: "ActivateSLST",
		16: "ActivateMLSTAndPlay", 17: "Call", 18: "ActivateBLST", 19: "ActivateFLST",
		20: "ZipModeChange", 21: "ActivateMLST", 22: "ActivateSLSTAndPlay", 23: "ActivateWLST",
		24: "Increment", 25: "DisableMenu", 26: "EnableMenu", 27: "ChangeStack", 28: "DisableMovie",
	}
	if n, ok := names[op]; ok {
		return n
	}
	return fmt.Sprintf("Opcode%d", op)
}

// DecodeScripts parses a CARD resource's script list and renders it as
// plain pretty-printed text.
func DecodeScripts(s *stream.Stream) (string, error) {
	count, err := s.ReadUint16BE()
	if err != nil {
		return "", WrapIO(err, "riven: read script count")
	}

	var buf bytes.Buffer
	for i := 0; i < int(count); i++ {
		typ, err := s.ReadUint16BE()
		if err != nil {
			return "", WrapIO(err, "riven: read script %d type", i)
		}
		fmt.Fprintf(&buf, "%s:\n", scriptTypeLabel(typ))
		if err := writeCommandBlock(&buf, s, 1); err != nil {
			return "", WrapIO(err, "riven: script %d body", i)
		}
	}
	return buf.String(), nil
}

func indent(n int) string { return strings.Repeat("  ", n) }

// writeCommandBlock decodes a command-count-prefixed run of commands,
// writing their pretty-printed form to buf at the given indent depth.
func writeCommandBlock(buf *bytes.Buffer, s *stream.Stream, depth int) error {
	count, err := s.ReadUint16BE()
	if err != nil {
		return WrapIO(err, "riven: read command count")
	}
	for i := 0; i < int(count); i++ {
		if err := writeCommand(buf, s, depth); err != nil {
			return WrapIO(err, "riven: command %d", i)
		}
	}
	return nil
}

// writeCommand decodes one command. Every command carries a generic u16
// count field after its opcode, but opcodes 7, 8, 17, 24, and 27 each read
// their own distinct fields straight off the stream rather than being sized
// by it; only the default rendering actually uses it to size a generic
// argument list.
func writeCommand(buf *bytes.Buffer, s *stream.Stream, depth int) error {
	op, err := s.ReadUint16BE()
	if err != nil {
		return err
	}
	varCount, err := s.ReadUint16BE()
	if err != nil {
		return err
	}

	switch op {
	case 7: // assign: its own variable-index and value fields
		varIndex, err := s.ReadUint16BE()
		if err != nil {
			return err
		}
		value, err := s.ReadUint16BE()
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%svar[%d] = %d\n", indent(depth), varIndex, value)

	case 8: // switch: its own switch-variable field, then per-case nested command blocks
		varIndex, err := s.ReadUint16BE()
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%sswitch (var[%d]) {\n", indent(depth), varIndex)
		caseCount, err := s.ReadUint16BE()
		if err != nil {
			return err
		}
		for c := 0; c < int(caseCount); c++ {
			caseVal, err := s.ReadUint16BE()
			if err != nil {
				return err
			}
			if caseVal == 0xFFFF {
				fmt.Fprintf(buf, "%sdefault:\n", indent(depth+1))
			} else {
				fmt.Fprintf(buf, "%scase %d:\n", indent(depth+1), caseVal)
			}
			if err := writeCommandBlock(buf, s, depth+2); err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "%s}\n", indent(depth))

	case 17: // external call: its own name-index, argument-count, and argument fields
		nameIndex, err := s.ReadUint16BE()
		if err != nil {
			return err
		}
		exVarCount, err := s.ReadUint16BE()
		if err != nil {
			return err
		}
		exArgs := make([]uint16, exVarCount)
		for i := range exArgs {
			exArgs[i], err = s.ReadUint16BE()
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "%scall name[%d](%s)\n", indent(depth), nameIndex, joinArgs(exArgs))

	case 24: // increment: its own variable-index field
		varIndex, err := s.ReadUint16BE()
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%svar[%d]++\n", indent(depth), varIndex)

	case 27: // change stack: its own stack-index and RMAP code fields
		stackIndex, err := s.ReadUint16BE()
		if err != nil {
			return err
		}
		rmap, err := s.ReadUint32BE()
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%schangeStack(%d, 0x%08X)\n", indent(depth), stackIndex, rmap)

	default: // generic rendering, sized by the count field read above
		args := make([]uint16, varCount)
		for i := range args {
			args[i], err = s.ReadUint16BE()
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "%s%s(%s)\n", indent(depth), commandName(op), joinArgs(args))
	}
	return nil
}

func joinArgs(args []uint16) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%d", a)
	}
	return strings.Join(parts, ", ")
}
