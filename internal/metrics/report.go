// internal/metrics/report.go
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/mwiater/simlab/internal/simlog"
	"github.com/mwiater/simlab/internal/util"
)

// Statistic names a value derived from a RunningStat.
type Statistic string

const (
	StatSum   Statistic = "sum"
	StatMean  Statistic = "mean"
	StatCount Statistic = "count"
	StatMin   Statistic = "min"
	StatMax   Statistic = "max"
	StatStd   Statistic = "std"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	warnText     = color.New(color.FgYellow).SprintFunc()
)

// ParseStatistics parses a comma separated list such as "sum,mean".
func ParseStatistics(raw string) ([]Statistic, error) {
	var out []Statistic
	for _, part := range strings.Split(raw, ",") {
		name := Statistic(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		switch name {
		case StatSum, StatMean, StatCount, StatMin, StatMax, StatStd:
			out = append(out, name)
		default:
			return nil, fmt.Errorf("unknown statistic %q (want sum, mean, count, min, max or std)", name)
		}
	}
	if len(out) == 0 {
		out = []Statistic{StatSum}
	}
	return out, nil
}

// Value derives the statistic. The boolean is false when it is undefined.
func (s Statistic) Value(rs RunningStat) (float64, bool) {
	switch s {
	case StatSum:
		return rs.Sum, true
	case StatCount:
		return float64(rs.Count), true
	case StatMean:
		return rs.Mean()
	case StatStd:
		return rs.StdDev()
	case StatMin:
		return rs.Min, rs.Count > 0
	case StatMax:
		return rs.Max, rs.Count > 0
	}
	return 0, false
}

// WriteGroupedReport prints one section per group in sorted key order with a
// "metric: value" line per field. An empty result prints a no-data line.
func WriteGroupedReport(w io.Writer, title string, res *Result, stats []Statistic) error {
	if len(stats) == 0 {
		stats = []Statistic{StatSum}
	}
	if title != "" {
		fmt.Fprintln(w, title)
	}
	if res == nil || res.Empty() {
		fmt.Fprintln(w, warnText("no data: no matching records found"))
		return nil
	}
	for _, key := range res.Keys() {
		b, _ := res.Bucket(key)
		fmt.Fprintf(w, "\n%s\n", sectionStyle.Render(fmt.Sprintf("=== %s ===", key)))
		for _, field := range b.Fields() {
			stat, _ := b.Stat(field)
			for _, s := range stats {
				label := field
				if len(stats) > 1 {
					label = field + "_" + string(s)
				}
				v, ok := s.Value(stat)
				if !ok {
					fmt.Fprintf(w, "%s: n/a\n", label)
					continue
				}
				fmt.Fprintf(w, "%s: %s\n", label, formatFloat(v))
			}
		}
	}
	return nil
}

// WriteTravelTimeReport prints the travel time window summary.
func WriteTravelTimeReport(w io.Writer, r TravelTimeReport) error {
	if r.Empty() {
		_, err := fmt.Fprintln(w, warnText("no cars arrived in the specified time window"))
		return err
	}
	fmt.Fprintf(w, "depart in %s s\n", r.Window)
	fmt.Fprintf(w, "number of cars      : %d\n", r.Count)
	fmt.Fprintf(w, "average travel time : %.2f s\n", r.MeanDuration)
	_, err := fmt.Fprintf(w, "average speed       : %.2f m/s (%.2f km/h)\n", r.MeanSpeedMPS, r.MeanSpeedKPH)
	return err
}

// WriteConflictReport prints the conflict count for a window.
func WriteConflictReport(w io.Writer, r ConflictReport) error {
	if r.Count == 0 {
		_, err := fmt.Fprintf(w, "%s\n", warnText(fmt.Sprintf("no conflicts with a known position between %ss and %ss", formatFloat(r.Window.Start), formatFloat(r.Window.End))))
		return err
	}
	_, err := fmt.Fprintf(w, "%ss to %ss: %d conflicts detected\n", formatFloat(r.Window.Start), formatFloat(r.Window.End), r.Count)
	return err
}

// WriteSummary prints a Summary as an aligned text table.
func WriteSummary(w io.Writer, s Summary) error {
	if len(s.Rows) == 0 {
		_, err := fmt.Fprintln(w, warnText("no data: no matching records found"))
		return err
	}
	width := len(s.GroupColumn)
	for _, r := range s.Rows {
		if len(r.Group) > width {
			width = len(r.Group)
		}
	}
	fmt.Fprintf(w, "%-*s", width, s.GroupColumn)
	for _, c := range s.Columns {
		fmt.Fprintf(w, "  %16s", c)
	}
	fmt.Fprintln(w)
	for _, r := range s.Rows {
		fmt.Fprintf(w, "%-*s", width, r.Group)
		for _, c := range s.Columns {
			fmt.Fprintf(w, "  %16s", formatCell(r.Values[c]))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// SummaryFrame converts a Summary into a dataframe with the group column
// first. Cells are pre-rendered so that undefined values stay empty.
func SummaryFrame(s Summary) dataframe.DataFrame {
	groups := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		groups[i] = r.Group
	}
	cols := []series.Series{series.New(groups, series.String, s.GroupColumn)}
	for _, c := range s.Columns {
		vals := make([]string, len(s.Rows))
		for i, r := range s.Rows {
			vals[i] = csvCell(r.Values[c])
		}
		cols = append(cols, series.New(vals, series.String, c))
	}
	return dataframe.New(cols...)
}

// WriteSummaryCSV writes a Summary as CSV, header included.
func WriteSummaryCSV(w io.Writer, s Summary) error {
	df := SummaryFrame(s)
	if df.Err != nil {
		return fmt.Errorf("build summary table: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// WritePointsCSV writes conflict positions as an x,y table.
func WritePointsCSV(w io.Writer, points []simlog.Point) error {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	df := dataframe.New(
		series.New(xs, series.Float, "x"),
		series.New(ys, series.Float, "y"),
	)
	if df.Err != nil {
		return fmt.Errorf("build points table: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// SaveFile creates path (and its directory) and streams content into it via write.
func SaveFile(path string, write func(io.Writer) error) error {
	if err := util.EnsureParentDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to close %s: %w", path, err)
	}
	return nil
}

// WriteAnalysisJSON writes any analysis value as indented JSON.
func WriteAnalysisJSON(path string, analysis any) error {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal analysis JSON: %w", err)
	}
	if err := util.WriteFile(path, append(data, '\n')); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return nil
}

type statSnapshot struct {
	Count int64    `json:"count"`
	Sum   float64  `json:"sum"`
	Mean  *float64 `json:"mean,omitempty"`
	Min   float64  `json:"min"`
	Max   float64  `json:"max"`
}

// MarshalJSON renders the groups with their per-field statistics.
func (r *Result) MarshalJSON() ([]byte, error) {
	groups := make(map[string]map[string]statSnapshot, len(r.buckets))
	for key, b := range r.buckets {
		fields := make(map[string]statSnapshot, len(b.fields))
		for name, stat := range b.fields {
			snap := statSnapshot{Count: stat.Count, Sum: stat.Sum, Min: stat.Min, Max: stat.Max}
			if m, ok := stat.Mean(); ok {
				snap.Mean = &m
			}
			fields[name] = snap
		}
		groups[key] = fields
	}
	return json.Marshal(struct {
		Groups  map[string]map[string]statSnapshot `json:"groups"`
		Visited int                                `json:"visited"`
		Matched int                                `json:"matched"`
		Skipped int                                `json:"skipped"`
	}{groups, r.Visited, r.Matched, r.Skipped})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func csvCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
