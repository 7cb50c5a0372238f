// internal/metrics/aggregator.go
package metrics

import (
	"sort"
	"strings"

	"github.com/mwiater/simlab/internal/simlog"
)

// RecordSource is a forward-only cursor over log records. *simlog.Scanner
// satisfies it.
type RecordSource interface {
	Next() bool
	Record() simlog.Record
	Err() error
}

// Query describes one aggregation pass.
type Query struct {
	// RecordTag restricts the pass to records with this tag. Empty accepts all.
	RecordTag string
	// GroupFields are joined with "|" to form the group key.
	GroupFields []string
	// NumericFields are summed per group. Empty means every attribute that
	// parses as a float.
	NumericFields []string
	// Mandatory fields must parse as floats or the record is skipped.
	Mandatory []string
	// Filter rejects records before they reach any bucket.
	Filter Predicate
}

// Result is the outcome of a flat aggregation pass.
type Result struct {
	buckets map[string]*Bucket

	// Visited counts every record read from the source.
	Visited int
	// Matched counts records that contributed to a bucket.
	Matched int
	// Skipped counts records rejected for a missing or malformed mandatory field.
	Skipped int
}

func newResult() *Result {
	return &Result{buckets: make(map[string]*Bucket)}
}

// Keys returns the group keys in sorted order.
func (r *Result) Keys() []string {
	keys := make([]string, 0, len(r.buckets))
	for k := range r.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bucket returns the bucket for a group key.
func (r *Result) Bucket(key string) (*Bucket, bool) {
	b, ok := r.buckets[key]
	return b, ok
}

// Empty reports whether no record matched.
func (r *Result) Empty() bool { return len(r.buckets) == 0 }

func (r *Result) bucket(key string) *Bucket {
	b, ok := r.buckets[key]
	if !ok {
		b = newBucket(key)
		r.buckets[key] = b
	}
	return b
}

// Aggregate runs a single forward pass over src, keeping one running
// statistic per (group, field). Memory does not depend on the number of
// records. The only errors are those reported by the source itself.
func Aggregate(src RecordSource, q Query) (*Result, error) {
	res := newResult()
	for src.Next() {
		rec := src.Record()
		res.Visited++
		if q.RecordTag != "" && rec.Tag != q.RecordTag {
			continue
		}
		key := q.groupKey(rec)
		if q.Filter != nil && !q.Filter(rec) {
			continue
		}
		values, ok := q.numericValues(rec)
		if !ok {
			res.Skipped++
			continue
		}
		res.Matched++
		b := res.bucket(key)
		for _, v := range values {
			b.add(v.Name, v.Value)
		}
	}
	if err := src.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (q Query) groupKey(rec simlog.Record) string {
	if len(q.GroupFields) == 0 {
		return AllRecords
	}
	parts := make([]string, len(q.GroupFields))
	for i, f := range q.GroupFields {
		parts[i] = rec.AttrOr(f, DefaultGroup)
	}
	return strings.Join(parts, "|")
}

// numericValues extracts the values to accumulate. It returns false when a
// mandatory field is missing or not numeric.
func (q Query) numericValues(rec simlog.Record) ([]simlog.NumericAttr, bool) {
	for _, f := range q.Mandatory {
		if _, err := rec.Float(f); err != nil {
			return nil, false
		}
	}
	if len(q.NumericFields) == 0 {
		return rec.NumericAttrs(), true
	}
	out := make([]simlog.NumericAttr, 0, len(q.NumericFields))
	for _, f := range q.NumericFields {
		v, err := rec.Float(f)
		if err != nil {
			continue
		}
		out = append(out, simlog.NumericAttr{Name: f, Value: v})
	}
	return out, true
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
