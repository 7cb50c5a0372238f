package simlog

import "strings"

// Trip is the decoded form of a <tripinfo> record. Depart and Duration are
// mandatory; the remaining numeric fields carry a presence flag.
type Trip struct {
	ID          string
	VType       string
	Depart      float64
	Duration    float64
	Arrival     float64
	RouteLength OptionalFloat
	WaitingTime OptionalFloat
	TimeLoss    OptionalFloat
}

// OptionalFloat is a numeric attribute that may be absent or unparsable.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Conflict is the decoded form of a <conflict> record from the SSM device.
type Conflict struct {
	Begin    float64
	End      OptionalFloat
	Ego      string
	Foe      string
	MinTTC   OptionalFloat
	Position Point
	// HasPosition is false when the minTTC child is missing or reports NA.
	HasPosition bool
}

// Point is a network coordinate.
type Point struct {
	X float64
	Y float64
}

// DecodeTrip decodes a tripinfo record. A missing arrival time decodes as -1,
// meaning the vehicle never arrived.
func DecodeTrip(r Record) (Trip, error) {
	depart, err := r.Float("depart")
	if err != nil {
		return Trip{}, err
	}
	duration, err := r.Float("duration")
	if err != nil {
		return Trip{}, err
	}
	trip := Trip{
		ID:          r.AttrOr("id", ""),
		VType:       r.AttrOr("vType", ""),
		Depart:      depart,
		Duration:    duration,
		Arrival:     -1,
		RouteLength: optional(r, "routeLength"),
		WaitingTime: optional(r, "waitingTime"),
		TimeLoss:    optional(r, "timeLoss"),
	}
	if arrival := optional(r, "arrival"); arrival.Valid {
		trip.Arrival = arrival.Value
	}
	return trip, nil
}

// Arrived reports whether the trip reached its destination.
func (t Trip) Arrived() bool { return t.Arrival >= 0 }

// DecodeConflict decodes a conflict record and its minTTC child.
func DecodeConflict(r Record) (Conflict, error) {
	begin, err := r.Float("begin")
	if err != nil {
		return Conflict{}, err
	}
	c := Conflict{
		Begin: begin,
		End:   optional(r, "end"),
		Ego:   r.AttrOr("ego", ""),
		Foe:   r.AttrOr("foe", ""),
	}
	ttc, ok := r.Child("minTTC")
	if !ok {
		return c, nil
	}
	c.MinTTC = optional(ttc, "value")
	if p, ok := parsePoint(ttc.AttrOr("position", "")); ok {
		c.Position = p
		c.HasPosition = true
	}
	return c, nil
}

func optional(r Record, name string) OptionalFloat {
	v, err := r.Float(name)
	if err != nil {
		return OptionalFloat{}
	}
	return OptionalFloat{Value: v, Valid: true}
}

func parsePoint(raw string) (Point, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "NA" {
		return Point{}, false
	}
	parts := strings.Split(raw, ",")
	if len(parts) < 2 {
		return Point{}, false
	}
	x, ok := parseFloat(parts[0])
	if !ok {
		return Point{}, false
	}
	y, ok := parseFloat(parts[1])
	if !ok {
		return Point{}, false
	}
	return Point{X: x, Y: y}, true
}

// Emission is the decoded form of one <vehicle> sample of the emission log.
// Values holds every numeric attribute, keyed by attribute name.
type Emission struct {
	ID     string
	EClass string
	Values map[string]float64
}

// DecodeEmission decodes a vehicle emission sample. The id is mandatory.
func DecodeEmission(r Record) (Emission, error) {
	id, ok := r.Attr("id")
	if !ok {
		return Emission{}, &RecordError{Tag: r.Tag, Field: "id", Err: ErrMissingField}
	}
	e := Emission{ID: id, EClass: r.AttrOr("eclass", ""), Values: map[string]float64{}}
	for _, a := range r.NumericAttrs() {
		e.Values[a.Name] = a.Value
	}
	return e, nil
}
