package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gomohawk/mohk"
)

func parseResArgs(typeArg, idArg string) (mohk.Tag, uint16, error) {
	if len(typeArg) != 4 {
		return 0, 0, fmt.Errorf("mohk: resource type %q must be exactly 4 characters", typeArg)
	}
	id, err := strconv.ParseUint(idArg, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("mohk: invalid resource id %q", idArg)
	}
	return mohk.MakeTag(typeArg), uint16(id), nil
}

func newDumpCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "dump <file> <resType> <resID>",
		Short: "Write a resource's raw bytes to a file",
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

			name := outPath
			if name == "" {
				name = fmt.Sprintf("%s_%d.dat", tag, id)
			}
			if err := os.WriteFile(name, data, 0o644); err != nil {
				return mohk.WrapIO(err, "mohk: write %q", name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default <type>_<id>.dat)")
	return cmd
}
