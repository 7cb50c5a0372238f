// internal/commands/config.go
package simlab

import (
	"fmt"

	"github.com/mwiater/simlab/internal/appconfig"
	"github.com/spf13/cobra"
)

// configCmd groups configuration maintenance commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	// Validation reports its own problems, so the root hook that rejects an
	// invalid merged config is skipped here.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

// configValidateCmd checks a configuration file against the schema and the
// semantic rules without running anything.
var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if len(args) == 1 {
			path = args[0]
		}
		cfg, err := appconfig.Load(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration OK: %s\n", cfg.ConfigPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
