// internal/commands/show.go
package simlab

import (
	"github.com/mwiater/simlab/internal/appconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showDump bool

// showCmd groups read-only inspection commands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show information about the current setup",
}

// showConfigCmd implements the 'show config' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overriden by flags accordingly.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentOrDefault()
		if showDump {
			return appconfig.DumpConfig(cmd.OutOrStdout(), cfg, false)
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), viper.ConfigFileUsed(), cfg)
		return nil
	},
}

func init() {
	showConfigCmd.Flags().BoolVar(&showDump, "dump", false, "pretty print every configuration field")

	showCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(showCmd)
}
