package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gomohawk/mohk"
)

// hexdump renders data in the traditional 16-bytes-per-row, offset-prefixed,
// ASCII-gutter hex dump layout.
func hexdump(data []byte) string {
	var buf bytes.Buffer
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]

		fmt.Fprintf(&buf, "%08x  ", off)
		for i := 0; i < 16; i++ {
			if i < len(row) {
				fmt.Fprintf(&buf, "%02x ", row[i])
			} else {
				buf.WriteString("   ")
			}
			if i == 7 {
				buf.WriteByte(' ')
			}
		}
		buf.WriteString(" |")
		for _, b := range row {
			if b >= 0x20 && b < 0x7F {
				buf.WriteByte(b)
			} else {
				buf.WriteByte('.')
			}
		}
		buf.WriteString("|\n")
	}
	return buf.String()
}

func newHexdumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hexdump <file> <resType> <resID>",
		Short: "Print a resource's raw bytes as a hex dump",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, id, err := parseResArgs(args[1], args[2])
			if err != nil {
				return err
			}
			a, err := mohk.Open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.GetResource(tag, id)
			if err != nil {
				return err
			}
			cmd.Print(hexdump(data))
			return nil
		},
	}
}
