// internal/metrics/types.go
package metrics

import "math"

// DefaultGroup labels records whose grouping attribute is absent.
const DefaultGroup = "Unknown"

// AllRecords is the group key used when a query has no group fields.
const AllRecords = "all"

// OverallAverage labels the synthetic cross-group row of a Summary.
const OverallAverage = "overall_average"

// RunningStat holds the running values for one numeric field of one group.
// Variance is tracked with Welford's online algorithm so memory stays constant.
type RunningStat struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	mean  float64
	m2    float64 // sum of squares of differences from the current mean
}

// Add folds a value into the running statistic.
func (rs *RunningStat) Add(value float64) {
	rs.Count++
	rs.Sum += value
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.mean
	rs.mean += delta / float64(rs.Count)
	delta2 := value - rs.mean
	rs.m2 += delta * delta2
}

// Mean returns Sum/Count. The boolean is false when no value was added.
func (rs RunningStat) Mean() (float64, bool) {
	if rs.Count == 0 {
		return 0, false
	}
	return rs.Sum / float64(rs.Count), true
}

// StdDev returns the sample standard deviation (n-1). It is undefined for
// fewer than two values.
func (rs RunningStat) StdDev() (float64, bool) {
	if rs.Count < 2 {
		return 0, false
	}
	return math.Sqrt(rs.m2 / float64(rs.Count-1)), true
}

// Bucket is the set of running statistics for one group key.
type Bucket struct {
	Key    string
	fields map[string]*RunningStat
	order  []string
}

func newBucket(key string) *Bucket {
	return &Bucket{Key: key, fields: make(map[string]*RunningStat)}
}

func (b *Bucket) add(field string, value float64) {
	stat, ok := b.fields[field]
	if !ok {
		stat = &RunningStat{}
		b.fields[field] = stat
		b.order = append(b.order, field)
	}
	stat.Add(value)
}

// Stat returns the running statistic for a field.
func (b *Bucket) Stat(field string) (RunningStat, bool) {
	stat, ok := b.fields[field]
	if !ok {
		return RunningStat{}, false
	}
	return *stat, true
}

// Fields returns the field names in sorted order.
func (b *Bucket) Fields() []string {
	return sortedCopy(b.order)
}
