// internal/commands/analyze_traveltime.go
package simlab

import (
	"github.com/mwiater/simlab/internal/metrics"
	"github.com/mwiater/simlab/internal/simlog"
	"github.com/spf13/cobra"
)

var travelTimeOpts struct {
	input      string
	jsonOutput string
}

// analyzeTravelTimeCmd reports mean travel time and speed of trips departing in a window.
var analyzeTravelTimeCmd = &cobra.Command{
	Use:   "traveltime [start end]",
	Short: "Average travel time and speed for trips departing in a window",
	Long: `Read a tripinfo log and report the number of arrived trips whose depart time
lies in [start, end] (inclusive, reversed bounds are swapped), their average
travel time, and the average speed as total distance over total duration.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentOrDefault()
		w, err := parseWindowArgs(args, metrics.NewTimeWindow(cfg.Windows.TravelTime.Start, cfg.Windows.TravelTime.End))
		if err != nil {
			return err
		}
		input := inputOrDefault(travelTimeOpts.input, cfg.Inputs.Tripinfo)

		var report metrics.TravelTimeReport
		err = openLog(commandContext(cmd), input, simlog.TagTripinfo, func(s *simlog.Scanner) error {
			var err error
			report, err = metrics.TravelTime(s, w)
			return err
		})
		if err != nil {
			return err
		}
		if err := metrics.WriteTravelTimeReport(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		return writeJSONIfRequested(travelTimeOpts.jsonOutput, report, cmd.OutOrStdout())
	},
}

func init() {
	analyzeTravelTimeCmd.Flags().StringVar(&travelTimeOpts.input, "input", "", "tripinfo log (defaults to inputs.tripinfo)")
	analyzeTravelTimeCmd.Flags().StringVar(&travelTimeOpts.jsonOutput, "json-output", "", "optional path to write the analysis JSON")

	analyzeCmd.AddCommand(analyzeTravelTimeCmd)
}
