// Package simlog reads the engine's XML output logs one record at a time.
package simlog

import (
	"strconv"
	"strings"
)

// Record tags used by the engine's output files.
const (
	TagTripinfo = "tripinfo"
	TagVehicle  = "vehicle"
	TagConflict = "conflict"
)

// Attr is a single name/value attribute of a record element.
type Attr struct {
	Name  string
	Value string
}

// NumericAttr is an attribute whose value parsed as a float.
type NumericAttr struct {
	Name  string
	Value float64
}

// Record is one captured log element together with its direct children.
type Record struct {
	Tag      string
	Attrs    []Attr
	Children []Record
}

// Attr returns the raw value of the named attribute.
func (r Record) Attr(name string) (string, bool) {
	for _, a := range r.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or fallback when it is absent.
func (r Record) AttrOr(name, fallback string) string {
	if v, ok := r.Attr(name); ok {
		return v
	}
	return fallback
}

// Float parses the named attribute as a float64.
func (r Record) Float(name string) (float64, error) {
	raw, ok := r.Attr(name)
	if !ok {
		return 0, &RecordError{Tag: r.Tag, Field: name, Err: ErrMissingField}
	}
	v, ok := parseFloat(raw)
	if !ok {
		return 0, &RecordError{Tag: r.Tag, Field: name, Err: ErrNotNumeric}
	}
	return v, nil
}

// Child returns the first direct child element with the given tag.
func (r Record) Child(tag string) (Record, bool) {
	for _, c := range r.Children {
		if c.Tag == tag {
			return c, true
		}
	}
	return Record{}, false
}

// NumericAttrs returns every attribute that parses as a float, in document order.
func (r Record) NumericAttrs() []NumericAttr {
	out := make([]NumericAttr, 0, len(r.Attrs))
	for _, a := range r.Attrs {
		if v, ok := parseFloat(a.Value); ok {
			out = append(out, NumericAttr{Name: a.Name, Value: v})
		}
	}
	return out
}

func parseFloat(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
