// internal/commands/analyze.go
package simlab

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mwiater/simlab/internal/logging"
	"github.com/mwiater/simlab/internal/logsource"
	"github.com/mwiater/simlab/internal/metrics"
	"github.com/mwiater/simlab/internal/simlog"
	"github.com/spf13/cobra"
)

// analyzeCmd hosts commands that aggregate the engine's output logs.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Aggregate simulation output logs",
	Long: `Tools for post-processing simulator output. Each command streams one XML
log (local path, "-" for stdin, or s3://bucket/key; .gz and .zst are
decompressed) and reports grouped statistics.`,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

// openLog streams location, calling scan with a scanner positioned before
// the first record named tag.
func openLog(ctx context.Context, location, tag string, scan func(*simlog.Scanner) error) error {
	rc, err := logsource.Open(ctx, location)
	if err != nil {
		return err
	}
	defer rc.Close()
	logging.Debugf("reading <%s> records from %s", tag, location)
	s := simlog.NewScanner(rc, tag)
	if err := scan(s); err != nil {
		return fmt.Errorf("%s: %w", location, err)
	}
	logging.Debugf("visited %d <%s> records from %s", s.Count(), tag, location)
	return nil
}

func inputOrDefault(flag, fallback string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	return fallback
}

func parseWindowArgs(args []string, fallback metrics.TimeWindow) (metrics.TimeWindow, error) {
	switch len(args) {
	case 0:
		return fallback, nil
	case 2:
		start, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return metrics.TimeWindow{}, fmt.Errorf("invalid window start %q: %w", args[0], err)
		}
		end, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return metrics.TimeWindow{}, fmt.Errorf("invalid window end %q: %w", args[1], err)
		}
		return metrics.NewTimeWindow(start, end), nil
	}
	return metrics.TimeWindow{}, fmt.Errorf("expected no arguments or <start> <end>, got %d arguments", len(args))
}

func writeJSONIfRequested(path string, v any, w io.Writer) error {
	if path == "" {
		return nil
	}
	if err := metrics.WriteAnalysisJSON(path, v); err != nil {
		return err
	}
	fmt.Fprintf(w, "analysis written to %s\n", path)
	return nil
}
