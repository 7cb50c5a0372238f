// internal/commands/analyze_conflicts.go
package simlab

import (
	"fmt"
	"io"

	"github.com/mwiater/simlab/internal/metrics"
	"github.com/mwiater/simlab/internal/simlog"
	"github.com/spf13/cobra"
)

var conflictsOpts struct {
	input        string
	start        float64
	end          float64
	pointsOutput string
	jsonOutput   string
}

// analyzeConflictsCmd counts conflicts with a known position inside a window.
var analyzeConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Count located conflicts in a time window",
	Long: `Read a conflict (SSM) log and count conflicts whose begin time lies in the
window and whose minimum time-to-collision position is known. The positions
can be written as an x,y CSV for external plotting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentOrDefault()
		w := metrics.NewTimeWindow(cfg.Windows.Conflicts.Start, cfg.Windows.Conflicts.End)
		if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
			start, end := w.Start, w.End
			if cmd.Flags().Changed("start") {
				start = conflictsOpts.start
			}
			if cmd.Flags().Changed("end") {
				end = conflictsOpts.end
			}
			w = metrics.NewTimeWindow(start, end)
		}
		input := inputOrDefault(conflictsOpts.input, cfg.Inputs.Conflicts)

		var report metrics.ConflictReport
		err := openLog(commandContext(cmd), input, simlog.TagConflict, func(s *simlog.Scanner) error {
			var err error
			report, err = metrics.Conflicts(s, w)
			return err
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := metrics.WriteConflictReport(out, report); err != nil {
			return err
		}
		if conflictsOpts.pointsOutput != "" {
			if err := metrics.SaveFile(conflictsOpts.pointsOutput, func(w io.Writer) error { return metrics.WritePointsCSV(w, report.Points) }); err != nil {
				return err
			}
			fmt.Fprintf(out, "points written to %s\n", conflictsOpts.pointsOutput)
		}
		return writeJSONIfRequested(conflictsOpts.jsonOutput, report, out)
	},
}

func init() {
	analyzeConflictsCmd.Flags().StringVar(&conflictsOpts.input, "input", "", "conflict log (defaults to inputs.conflicts)")
	analyzeConflictsCmd.Flags().Float64Var(&conflictsOpts.start, "start", 0, "window start in seconds (defaults to windows.conflicts.start)")
	analyzeConflictsCmd.Flags().Float64Var(&conflictsOpts.end, "end", 0, "window end in seconds (defaults to windows.conflicts.end)")
	analyzeConflictsCmd.Flags().StringVar(&conflictsOpts.pointsOutput, "points-output", "", "optional CSV path for conflict positions")
	analyzeConflictsCmd.Flags().StringVar(&conflictsOpts.jsonOutput, "json-output", "", "optional path to write the analysis JSON")

	analyzeCmd.AddCommand(analyzeConflictsCmd)
}
