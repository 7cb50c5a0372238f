package metrics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mwiater/simlab/internal/simlog"
)

func TestWriteGroupedReportSortedSections(t *testing.T) {
	src := &sliceSource{recs: []simlog.Record{
		{Tag: "vehicle", Attrs: []simlog.Attr{{Name: "eclass", Value: "zeta"}, {Name: "NOx", Value: "2"}, {Name: "CO2", Value: "5"}}},
		{Tag: "vehicle", Attrs: []simlog.Attr{{Name: "eclass", Value: "alpha"}, {Name: "CO2", Value: "1.5"}}},
	}}
	res, err := EmissionsByClass(src)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteGroupedReport(&buf, "", res, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	alpha := strings.Index(out, "=== alpha ===")
	zeta := strings.Index(out, "=== zeta ===")
	if alpha < 0 || zeta < 0 || alpha > zeta {
		t.Fatalf("expected sorted sections, got:\n%s", out)
	}
	co2 := strings.LastIndex(out, "CO2: 5")
	nox := strings.LastIndex(out, "NOx: 2")
	if co2 < 0 || nox < 0 || co2 > nox {
		t.Fatalf("expected sorted metrics, got:\n%s", out)
	}
}

func TestWriteGroupedReportMultipleStats(t *testing.T) {
	src := &sliceSource{recs: []simlog.Record{
		{Tag: "vehicle", Attrs: []simlog.Attr{{Name: "CO2", Value: "4"}}},
		{Tag: "vehicle", Attrs: []simlog.Attr{{Name: "CO2", Value: "2"}}},
	}}
	res, _ := EmissionsByClass(src)
	stats, err := ParseStatistics("sum, mean,std")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	_ = WriteGroupedReport(&buf, "totals", res, stats)
	out := buf.String()
	for _, want := range []string{"totals", "=== Unknown ===", "CO2_sum: 6", "CO2_mean: 3", "CO2_std: 1.414"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestParseStatisticsRejectsUnknown(t *testing.T) {
	if _, err := ParseStatistics("sum,median"); err == nil {
		t.Fatal("expected error for unknown statistic")
	}
	stats, err := ParseStatistics("")
	if err != nil || len(stats) != 1 || stats[0] != StatSum {
		t.Fatalf("expected default sum, got %v %v", stats, err)
	}
}

func TestWriteGroupedReportNoData(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGroupedReport(&buf, "", newResult(), nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no data") {
		t.Fatalf("expected no data indication, got %q", buf.String())
	}
}

func TestWriteTravelTimeReport(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteTravelTimeReport(&buf, TravelTimeReport{})
	if !strings.Contains(buf.String(), "no cars arrived") {
		t.Fatalf("expected empty message, got %q", buf.String())
	}

	buf.Reset()
	_ = WriteTravelTimeReport(&buf, TravelTimeReport{
		Window: NewTimeWindow(25200, 28800), Count: 2, TotalDuration: 400,
		MeanDuration: 200, MeanSpeedMPS: 10, MeanSpeedKPH: 36,
	})
	out := buf.String()
	for _, want := range []string{"[25200, 28800]", "number of cars      : 2", "200.00 s", "10.00 m/s (36.00 km/h)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	s := Summary{
		GroupColumn: "vType",
		Columns:     []string{"waitingTime_mean", "waitingTime_std"},
		Rows: []SummaryRow{
			{Group: "A", Values: map[string]float64{"waitingTime_mean": 15, "waitingTime_std": 7.5}},
			{Group: "B", Values: map[string]float64{"waitingTime_mean": 30, "waitingTime_std": math.NaN()}},
			{Group: OverallAverage, Values: map[string]float64{"waitingTime_mean": 22.5, "waitingTime_std": 7.5}},
		},
	}
	path := filepath.Join(t.TempDir(), "analysis_output", "summary.csv")
	if err := SaveFile(path, func(w io.Writer) error { return WriteSummaryCSV(w, s) }); err != nil {
		t.Fatalf("SaveFile error: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "vType,waitingTime_mean,waitingTime_std" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[3][0] != OverallAverage {
		t.Fatalf("expected overall_average last, got %v", rows[3])
	}
	if v, err := strconv.ParseFloat(rows[3][1], 64); err != nil || v != 22.5 {
		t.Fatalf("unexpected overall mean cell %q", rows[3][1])
	}
	if rows[2][2] != "" {
		t.Fatalf("expected an empty cell for single-sample std, got %q", rows[2][2])
	}
	if rows[1][2] != "7.5" {
		t.Fatalf("unexpected std cell %q", rows[1][2])
	}
}

func TestWriteAnalysisJSONResult(t *testing.T) {
	src := &sliceSource{recs: []simlog.Record{
		{Tag: "vehicle", Attrs: []simlog.Attr{{Name: "eclass", Value: "e1"}, {Name: "CO2", Value: "4"}}},
	}}
	res, _ := EmissionsByClass(src)
	path := filepath.Join(t.TempDir(), "out", "emissions.json")
	if err := WriteAnalysisJSON(path, res); err != nil {
		t.Fatalf("WriteAnalysisJSON error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Groups map[string]map[string]struct {
			Count int64   `json:"count"`
			Sum   float64 `json:"sum"`
			Mean  float64 `json:"mean"`
		} `json:"groups"`
		Matched int `json:"matched"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Matched != 1 || decoded.Groups["e1"]["CO2"].Sum != 4 || decoded.Groups["e1"]["CO2"].Mean != 4 {
		t.Fatalf("unexpected analysis JSON %s", data)
	}
}

func TestConflictsWindow(t *testing.T) {
	doc := `<SSMLog>
  <conflict begin="25100" ego="a" foe="b"><minTTC position="1,1" value="1"/></conflict>
  <conflict begin="25300" ego="c" foe="d"><minTTC position="10.5,20.25" value="0.8"/></conflict>
  <conflict begin="26000" ego="e" foe="f"><minTTC position="NA" value="NA"/></conflict>
  <conflict ego="g" foe="h"><minTTC position="3,3" value="1"/></conflict>
  <conflict begin="27000" ego="i" foe="j"><minTTC position="7,8" value="2"/></conflict>
</SSMLog>`
	r, err := Conflicts(simlog.NewScanner(strings.NewReader(doc), simlog.TagConflict), DefaultConflictWindow)
	if err != nil {
		t.Fatalf("Conflicts error: %v", err)
	}
	if r.Count != 2 || r.Skipped != 1 || r.Visited != 5 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.Points[0] != (simlog.Point{X: 10.5, Y: 20.25}) {
		t.Fatalf("unexpected first point %+v", r.Points[0])
	}

	var buf bytes.Buffer
	if err := WritePointsCSV(&buf, r.Points); err != nil {
		t.Fatalf("WritePointsCSV error: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil || len(rows) != 3 || strings.Join(rows[0], ",") != "x,y" {
		t.Fatalf("unexpected points csv %v err=%v", rows, err)
	}

	buf.Reset()
	_ = WriteConflictReport(&buf, r)
	if !strings.Contains(buf.String(), "2 conflicts detected") {
		t.Fatalf("unexpected conflict report %q", buf.String())
	}
}
