package metrics

import (
	"fmt"

	"github.com/mwiater/simlab/internal/simlog"
)

// TimeWindow is an inclusive [Start, End] interval of simulated seconds.
type TimeWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewTimeWindow builds a window, swapping the bounds when start > end.
func NewTimeWindow(start, end float64) TimeWindow {
	if start > end {
		start, end = end, start
	}
	return TimeWindow{Start: start, End: end}
}

// Contains reports whether t lies inside the window, bounds included.
func (w TimeWindow) Contains(t float64) bool {
	return w.Start <= t && t <= w.End
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s]", formatFloat(w.Start), formatFloat(w.End))
}

// Predicate decides whether a record takes part in an aggregation.
type Predicate func(simlog.Record) bool

// InWindow accepts records whose field parses and falls inside w.
func InWindow(field string, w TimeWindow) Predicate {
	return func(rec simlog.Record) bool {
		v, err := rec.Float(field)
		if err != nil {
			return false
		}
		return w.Contains(v)
	}
}

// AtLeast accepts records whose field is >= min. A missing field takes the
// fallback value; a present but non-numeric field rejects the record.
func AtLeast(field string, min, fallback float64) Predicate {
	return func(rec simlog.Record) bool {
		if _, ok := rec.Attr(field); !ok {
			return fallback >= min
		}
		v, err := rec.Float(field)
		if err != nil {
			return false
		}
		return v >= min
	}
}

// Present accepts records carrying every named attribute.
func Present(fields ...string) Predicate {
	return func(rec simlog.Record) bool {
		for _, f := range fields {
			if _, ok := rec.Attr(f); !ok {
				return false
			}
		}
		return true
	}
}

// All combines predicates with logical AND. Nil entries are ignored.
func All(preds ...Predicate) Predicate {
	return func(rec simlog.Record) bool {
		for _, p := range preds {
			if p != nil && !p(rec) {
				return false
			}
		}
		return true
	}
}
