// Command mohk lists, dumps, hex-dumps, and converts resources out of
// Mohawk archives.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gomohawk/mohk"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mohk",
		Short: "Read and convert Mohawk resource archives",
		// main prints the one-line diagnostic itself.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			mohk.Logger.SetOutput(os.Stderr)
			mohk.Logger.SetLevel(logrus.DebugLevel)
		}
	}

	root.AddCommand(newListCmd(), newDumpCmd(), newHexdumpCmd(), newConvertCmd())
	return root
}
