package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gomohawk/mohk"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <file> [resType] [resID]",
		Short: "List resource types and ids in an archive",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := mohk.Open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 1 {
				for _, tag := range a.Types() {
					fmt.Println(tag)
				}
				return nil
			}

			if len(args) == 3 {
				tag, id, err := parseResArgs(args[1], args[2])
				if err != nil {
					return err
				}
				if !a.HasResource(tag, id) {
					return fmt.Errorf("mohk: resource %s %d not found", tag, id)
				}
				fmt.Printf("%s %d present\n", tag, id)
				return nil
			}

			tag := mohk.MakeTag(args[1])

			for _, id := range a.IDs(tag) {
				fmt.Println(id)
			}
			return nil
		},
	}
}
