package metrics

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
)

// Collection keeps every matching value per group so that both mean and
// standard deviation can be reported. Memory grows with the number of matching
// records; use it for one run's trip-info, not for unbounded streams.
type Collection struct {
	groupColumn string
	fields      []string
	groups      map[string]map[string][]float64

	Visited int
	Matched int
	Skipped int
}

// SummaryRow holds the derived statistics for one group.
type SummaryRow struct {
	Group  string
	Values map[string]float64
}

// Summary is the tabular form of a Collection: one row per group in sorted
// order followed by the overall_average row.
type Summary struct {
	GroupColumn string
	Columns     []string
	Rows        []SummaryRow
}

// Collect runs the per-record collection pass.
func Collect(src RecordSource, q Query) (*Collection, error) {
	c := &Collection{
		groupColumn: strings.Join(q.GroupFields, "|"),
		fields:      append([]string(nil), q.NumericFields...),
		groups:      make(map[string]map[string][]float64),
	}
	if c.groupColumn == "" {
		c.groupColumn = "group"
	}
	seen := make(map[string]struct{}, len(c.fields))
	for _, f := range c.fields {
		seen[f] = struct{}{}
	}

	for src.Next() {
		rec := src.Record()
		c.Visited++
		if q.RecordTag != "" && rec.Tag != q.RecordTag {
			continue
		}
		key := q.groupKey(rec)
		if q.Filter != nil && !q.Filter(rec) {
			continue
		}
		values, ok := q.numericValues(rec)
		if !ok {
			c.Skipped++
			continue
		}
		c.Matched++
		group, ok := c.groups[key]
		if !ok {
			group = make(map[string][]float64)
			c.groups[key] = group
		}
		for _, v := range values {
			group[v.Name] = append(group[v.Name], v.Value)
			if _, known := seen[v.Name]; !known {
				seen[v.Name] = struct{}{}
				c.fields = append(c.fields, v.Name)
			}
		}
	}
	if err := src.Err(); err != nil {
		return nil, err
	}
	if len(q.NumericFields) == 0 {
		sort.Strings(c.fields)
	}
	return c, nil
}

// Keys returns the group keys in sorted order.
func (c *Collection) Keys() []string {
	keys := make([]string, 0, len(c.groups))
	for k := range c.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Empty reports whether no record matched.
func (c *Collection) Empty() bool { return len(c.groups) == 0 }

// Values returns the collected values of one field for one group.
func (c *Collection) Values(group, field string) []float64 {
	return c.groups[group][field]
}

// Summary derives mean and sample standard deviation per group and field and
// appends the overall_average row. The overall row is the unweighted mean of
// the group rows, ignoring NaN cells; it does not account for group sizes.
// An empty collection yields a Summary without rows.
func (c *Collection) Summary() Summary {
	s := Summary{GroupColumn: c.groupColumn}
	for _, f := range c.fields {
		s.Columns = append(s.Columns, f+"_mean", f+"_std")
	}
	if c.Empty() {
		return s
	}

	for _, key := range c.Keys() {
		row := SummaryRow{Group: key, Values: make(map[string]float64, len(s.Columns))}
		for _, f := range c.fields {
			var stat RunningStat
			for _, v := range c.groups[key][f] {
				stat.Add(v)
			}
			row.Values[f+"_mean"] = valueOrNaN(stat.Mean())
			row.Values[f+"_std"] = valueOrNaN(stat.StdDev())
		}
		s.Rows = append(s.Rows, row)
	}

	overall := SummaryRow{Group: OverallAverage, Values: make(map[string]float64, len(s.Columns))}
	for _, col := range s.Columns {
		var stat RunningStat
		for _, row := range s.Rows {
			if v := row.Values[col]; !math.IsNaN(v) {
				stat.Add(v)
			}
		}
		overall.Values[col] = valueOrNaN(stat.Mean())
	}
	s.Rows = append(s.Rows, overall)
	return s
}

// Row returns the summary row for a group label.
func (s Summary) Row(group string) (SummaryRow, bool) {
	for _, r := range s.Rows {
		if r.Group == group {
			return r, true
		}
	}
	return SummaryRow{}, false
}

func valueOrNaN(v float64, ok bool) float64 {
	if !ok {
		return math.NaN()
	}
	return v
}

// MarshalJSON renders the summary with NaN cells as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	type row struct {
		Group  string              `json:"group"`
		Values map[string]*float64 `json:"values"`
	}
	rows := make([]row, 0, len(s.Rows))
	for _, r := range s.Rows {
		vals := make(map[string]*float64, len(r.Values))
		for k, v := range r.Values {
			if math.IsNaN(v) {
				vals[k] = nil
				continue
			}
			v := v
			vals[k] = &v
		}
		rows = append(rows, row{Group: r.Group, Values: vals})
	}
	return json.Marshal(struct {
		GroupColumn string   `json:"group_column"`
		Columns     []string `json:"columns"`
		Rows        []row    `json:"rows"`
	}{s.GroupColumn, s.Columns, rows})
}
