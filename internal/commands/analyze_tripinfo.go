// internal/commands/analyze_tripinfo.go
package simlab

import (
	"fmt"
	"io"

	"github.com/mwiater/simlab/internal/metrics"
	"github.com/mwiater/simlab/internal/simlog"
	"github.com/mwiater/simlab/internal/util"
	"github.com/spf13/cobra"
)

const tripinfoSummaryFile = "tripinfo_summary_by_vtype.csv"

var tripinfoOpts struct {
	input      string
	output     string
	fields     string
	jsonOutput string
}

// analyzeTripinfoCmd summarizes trip metrics per vehicle type.
var analyzeTripinfoCmd = &cobra.Command{
	Use:   "tripinfo",
	Short: "Per vehicle type mean and standard deviation of trip metrics",
	Long: `Read a tripinfo log and compute, per vehicle type, the mean and sample
standard deviation of each field, plus an overall_average row holding the
unweighted mean of the per-type rows. The table is printed and written as CSV.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentOrDefault()
		input := inputOrDefault(tripinfoOpts.input, cfg.Inputs.Tripinfo)
		output := inputOrDefault(tripinfoOpts.output, cfg.OutputPath(tripinfoSummaryFile))
		fields := util.SplitList(tripinfoOpts.fields)

		var coll *metrics.Collection
		err := openLog(commandContext(cmd), input, simlog.TagTripinfo, func(s *simlog.Scanner) error {
			var err error
			coll, err = metrics.TripinfoByType(s, fields)
			return err
		})
		if err != nil {
			return err
		}

		summary := coll.Summary()
		out := cmd.OutOrStdout()
		if err := metrics.WriteSummary(out, summary); err != nil {
			return err
		}
		if coll.Empty() {
			return nil
		}
		if err := metrics.SaveFile(output, func(w io.Writer) error { return metrics.WriteSummaryCSV(w, summary) }); err != nil {
			return err
		}
		fmt.Fprintf(out, "summary written to %s\n", output)
		return writeJSONIfRequested(tripinfoOpts.jsonOutput, summary, out)
	},
}

func init() {
	analyzeTripinfoCmd.Flags().StringVar(&tripinfoOpts.input, "input", "", "tripinfo log (defaults to inputs.tripinfo)")
	analyzeTripinfoCmd.Flags().StringVar(&tripinfoOpts.output, "output", "", "CSV destination (defaults to <output.dir>/"+tripinfoSummaryFile+")")
	analyzeTripinfoCmd.Flags().StringVar(&tripinfoOpts.fields, "fields", "waitingTime,timeLoss", "comma separated tripinfo fields to summarize")
	analyzeTripinfoCmd.Flags().StringVar(&tripinfoOpts.jsonOutput, "json-output", "", "optional path to write the summary JSON")

	analyzeCmd.AddCommand(analyzeTripinfoCmd)
}
