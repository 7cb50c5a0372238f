package simlog

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeTrip(t *testing.T) {
	rec := Record{Tag: TagTripinfo, Attrs: []Attr{
		{Name: "id", Value: "t1"},
		{Name: "depart", Value: "25300"},
		{Name: "duration", Value: "120.5"},
		{Name: "vType", Value: "CAV"},
		{Name: "waitingTime", Value: "3"},
	}}
	trip, err := DecodeTrip(rec)
	if err != nil {
		t.Fatalf("DecodeTrip error: %v", err)
	}
	if trip.Arrived() {
		t.Fatal("trip without arrival must not count as arrived")
	}
	if trip.RouteLength.Valid {
		t.Fatal("routeLength should be absent")
	}
	if !trip.WaitingTime.Valid || trip.WaitingTime.Value != 3 {
		t.Fatalf("unexpected waitingTime %+v", trip.WaitingTime)
	}
	if trip.VType != "CAV" || trip.Duration != 120.5 {
		t.Fatalf("unexpected trip %+v", trip)
	}
}

func TestDecodeTripMissingMandatory(t *testing.T) {
	rec := Record{Tag: TagTripinfo, Attrs: []Attr{{Name: "depart", Value: "1"}}}
	_, err := DecodeTrip(rec)
	var recErr *RecordError
	if !errors.As(err, &recErr) || recErr.Field != "duration" || !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing duration error, got %v", err)
	}
}

func TestDecodeConflict(t *testing.T) {
	doc := `<SSMLog>
  <conflict begin="25210.20" end="25212.00" ego="veh1" foe="veh2">
    <minTTC time="25211.00" position="1021.55,388.10" type="2" value="1.20"/>
  </conflict>
  <conflict begin="25300.00" end="25301.00" ego="veh3" foe="veh4">
    <minTTC time="NA" position="NA" type="NA" value="NA"/>
  </conflict>
</SSMLog>`
	s := NewScanner(strings.NewReader(doc), TagConflict)
	var got []Conflict
	for s.Next() {
		c, err := DecodeConflict(s.Record())
		if err != nil {
			t.Fatalf("DecodeConflict error: %v", err)
		}
		got = append(got, c)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(got))
	}
	if !got[0].HasPosition || got[0].Position.X != 1021.55 || got[0].Position.Y != 388.10 {
		t.Fatalf("unexpected first conflict %+v", got[0])
	}
	if !got[0].MinTTC.Valid || got[0].MinTTC.Value != 1.2 {
		t.Fatalf("unexpected minTTC %+v", got[0].MinTTC)
	}
	if got[1].HasPosition || got[1].MinTTC.Valid {
		t.Fatalf("NA position must not decode: %+v", got[1])
	}
}

func TestDecodeEmission(t *testing.T) {
	doc := `<emission-export>
  <timestep time="0.20">
    <vehicle id="veh0" eclass="HBEFA3/PC_G_EU4" CO2="2624.72" fuel="1.13" route="r0" speed="13.9"/>
    <vehicle eclass="HBEFA3/PC_G_EU4" CO2="1"/>
  </timestep>
</emission-export>`
	s := NewScanner(strings.NewReader(doc), TagVehicle)
	if !s.Next() {
		t.Fatalf("expected first vehicle, err=%v", s.Err())
	}
	e, err := DecodeEmission(s.Record())
	if err != nil {
		t.Fatalf("DecodeEmission error: %v", err)
	}
	if e.ID != "veh0" || e.EClass != "HBEFA3/PC_G_EU4" {
		t.Fatalf("unexpected emission %+v", e)
	}
	if len(e.Values) != 3 || e.Values["CO2"] != 2624.72 || e.Values["speed"] != 13.9 {
		t.Fatalf("unexpected values %v", e.Values)
	}
	if _, ok := e.Values["route"]; ok {
		t.Fatal("non-numeric attribute must be excluded")
	}

	if !s.Next() {
		t.Fatalf("expected second vehicle, err=%v", s.Err())
	}
	_, err = DecodeEmission(s.Record())
	var recErr *RecordError
	if !errors.As(err, &recErr) || recErr.Field != "id" || !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing id error, got %v", err)
	}
}
