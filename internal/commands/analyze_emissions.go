// internal/commands/analyze_emissions.go
package simlab

import (
	"github.com/mwiater/simlab/internal/metrics"
	"github.com/mwiater/simlab/internal/simlog"
	"github.com/spf13/cobra"
)

var emissionsOpts struct {
	input      string
	stats      string
	jsonOutput string
}

// analyzeEmissionsCmd sums every numeric emission attribute per emission class.
var analyzeEmissionsCmd = &cobra.Command{
	Use:   "emissions",
	Short: "Total emissions per emission class",
	Long: `Read an emission log and sum every numeric attribute of each vehicle sample,
grouped by emission class. Samples without a class are grouped under "Unknown".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentOrDefault()
		stats, err := metrics.ParseStatistics(emissionsOpts.stats)
		if err != nil {
			return err
		}
		input := inputOrDefault(emissionsOpts.input, cfg.Inputs.Emissions)

		var res *metrics.Result
		err = openLog(commandContext(cmd), input, simlog.TagVehicle, func(s *simlog.Scanner) error {
			var err error
			res, err = metrics.EmissionsByClass(s)
			return err
		})
		if err != nil {
			return err
		}
		if err := metrics.WriteGroupedReport(cmd.OutOrStdout(), "Emission totals by class", res, stats); err != nil {
			return err
		}
		return writeJSONIfRequested(emissionsOpts.jsonOutput, res, cmd.OutOrStdout())
	},
}

func init() {
	analyzeEmissionsCmd.Flags().StringVar(&emissionsOpts.input, "input", "", "emission log (defaults to inputs.emissions)")
	analyzeEmissionsCmd.Flags().StringVar(&emissionsOpts.stats, "stats", "sum", "statistics to print: sum, mean, count, min, max, std")
	analyzeEmissionsCmd.Flags().StringVar(&emissionsOpts.jsonOutput, "json-output", "", "optional path to write the analysis JSON")

	analyzeCmd.AddCommand(analyzeEmissionsCmd)
}
