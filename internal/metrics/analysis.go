package metrics

import (
	"github.com/mwiater/simlab/internal/simlog"
)

// Default windows used by the corridor study (07:00 onwards, in seconds).
var (
	DefaultTravelTimeWindow = TimeWindow{Start: 25200, End: 28800}
	DefaultConflictWindow   = TimeWindow{Start: 25200, End: 27000}
)

// DefaultTripinfoFields are the per-vType metrics summarised by TripinfoByType.
var DefaultTripinfoFields = []string{"waitingTime", "timeLoss"}

// TravelTimeReport summarises trips departing inside a window.
type TravelTimeReport struct {
	Window        TimeWindow `json:"window"`
	Count         int64      `json:"count"`
	TotalDuration float64    `json:"total_duration_s"`
	TotalDistance float64    `json:"total_distance_m"`
	MeanDuration  float64    `json:"mean_duration_s"`
	MeanSpeedMPS  float64    `json:"mean_speed_mps"`
	MeanSpeedKPH  float64    `json:"mean_speed_kph"`
	Skipped       int        `json:"skipped"`
}

// Empty reports whether no arrived trip departed inside the window.
func (r TravelTimeReport) Empty() bool {
	return r.Count == 0 || r.TotalDuration == 0
}

// TravelTime counts arrived trips departing inside w and derives the mean
// travel time and mean speed (total distance over total duration). Trips
// without a routeLength still count towards duration.
func TravelTime(src RecordSource, w TimeWindow) (TravelTimeReport, error) {
	res, err := Aggregate(src, Query{
		RecordTag:     simlog.TagTripinfo,
		NumericFields: []string{"duration", "routeLength"},
		Mandatory:     []string{"depart", "duration"},
		Filter:        tripInWindow(w),
	})
	if err != nil {
		return TravelTimeReport{}, err
	}

	report := TravelTimeReport{Window: w, Skipped: res.Skipped}
	b, ok := res.Bucket(AllRecords)
	if !ok {
		return report, nil
	}
	duration, _ := b.Stat("duration")
	distance, _ := b.Stat("routeLength")
	report.Count = duration.Count
	report.TotalDuration = duration.Sum
	report.TotalDistance = distance.Sum
	if report.Empty() {
		return report, nil
	}
	report.MeanDuration, _ = duration.Mean()
	report.MeanSpeedMPS = report.TotalDistance / report.TotalDuration
	report.MeanSpeedKPH = report.MeanSpeedMPS * 3.6
	return report, nil
}

// tripInWindow passes records whose depart cannot be read so that the
// mandatory field check counts them as skipped.
func tripInWindow(w TimeWindow) Predicate {
	arrived := AtLeast("arrival", 0, -1)
	return func(rec simlog.Record) bool {
		depart, err := rec.Float("depart")
		if err != nil {
			return true
		}
		return w.Contains(depart) && arrived(rec)
	}
}

// EmissionsByClass sums every numeric attribute of <vehicle> samples,
// grouped by emission class.
func EmissionsByClass(src RecordSource) (*Result, error) {
	return Aggregate(src, Query{
		RecordTag:   simlog.TagVehicle,
		GroupFields: []string{"eclass"},
	})
}

// TripinfoByType collects the given fields of every trip grouped by vType.
func TripinfoByType(src RecordSource, fields []string) (*Collection, error) {
	if len(fields) == 0 {
		fields = DefaultTripinfoFields
	}
	return Collect(src, Query{
		RecordTag:     simlog.TagTripinfo,
		GroupFields:   []string{"vType"},
		NumericFields: fields,
	})
}

// ConflictReport lists conflicts whose begin time lies inside a window and
// whose minTTC position is known.
type ConflictReport struct {
	Window  TimeWindow     `json:"window"`
	Count   int            `json:"count"`
	Points  []simlog.Point `json:"points"`
	Visited int            `json:"visited"`
	Skipped int            `json:"skipped"`
}

// Conflicts filters conflict records by begin time and collects their
// minTTC positions.
func Conflicts(src RecordSource, w TimeWindow) (ConflictReport, error) {
	report := ConflictReport{Window: w}
	for src.Next() {
		rec := src.Record()
		report.Visited++
		if rec.Tag != simlog.TagConflict {
			continue
		}
		c, err := simlog.DecodeConflict(rec)
		if err != nil {
			report.Skipped++
			continue
		}
		if !w.Contains(c.Begin) || !c.HasPosition {
			continue
		}
		report.Points = append(report.Points, c.Position)
		report.Count++
	}
	if err := src.Err(); err != nil {
		return ConflictReport{}, err
	}
	return report, nil
}
