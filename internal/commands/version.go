// internal/commands/version.go
package simlab

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionCmd prints the build information injected by main.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the simlab version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "simlab %s\n", versionString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
