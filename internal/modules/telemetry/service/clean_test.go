package service

import (
	"reflect"
	"testing"

	"greenhouse-server/internal/modules/telemetry/types"
)

func TestCleanReadings_DropsControlFieldsAndSorts(t *testing.T) {
	in := []types.Reading{
		{Sensor: "unix_time", Value: 123, IsAnomaly: false},
		{Sensor: "b_temp", Value: 1, IsAnomaly: false},
		{Sensor: "a_rh", Value: 2, IsAnomaly: false},
	}

	got := CleanReadings(in)

	want := []types.Reading{
		{Sensor: "a_rh", Value: 2, IsAnomaly: false},
		{Sensor: "b_temp", Value: 1, IsAnomaly: false},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CleanReadings = %+v, want %+v", got, want)
	}
}

func TestCleanReadings_ReservedNames(t *testing.T) {
	tests := []struct {
		name   string
		sensor string
	}{
		{name: "matlab_datenum", sensor: "matlab_datenum"},
		{name: "unix_time", sensor: "unix_time"},
		{name: "timestamp", sensor: "timestamp"},
		{name: "uppercase", sensor: "TIMESTAMP"},
		{name: "mixed case", sensor: "Unix_Time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanReadings([]types.Reading{{Sensor: tt.sensor, Value: 1}})
			if len(got) != 0 {
				t.Errorf("CleanReadings kept reserved sensor %q: %+v", tt.sensor, got)
			}
		})
	}
}

func TestCleanReadings_NumericSensorIDs(t *testing.T) {
	tests := []struct {
		name   string
		sensor string
		kept   bool
	}{
		{name: "integer", sensor: "42", kept: false},
		{name: "float", sensor: "3.14", kept: false},
		{name: "negative", sensor: "-7", kept: false},
		{name: "scientific", sensor: "1e3", kept: false},
		{name: "alphanumeric kept", sensor: "zone4_co2", kept: true},
		{name: "plain name kept", sensor: "vpd", kept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanReadings([]types.Reading{{Sensor: tt.sensor, Value: 1}})
			if kept := len(got) == 1; kept != tt.kept {
				t.Errorf("CleanReadings(%q): kept=%v, want %v", tt.sensor, kept, tt.kept)
			}
		})
	}
}

func TestCleanReadings_DedupesBySensor_FirstWins(t *testing.T) {
	in := []types.Reading{
		{Sensor: "co2", Value: 400},
		{Sensor: "rh", Value: 55},
		{Sensor: "co2", Value: 900},
	}

	got := CleanReadings(in)

	if len(got) != 2 {
		t.Fatalf("got %d readings, want 2: %+v", len(got), got)
	}
	if got[0].Sensor != "co2" || got[0].Value != 400 {
		t.Errorf("first reading = %+v, want co2=400 (first occurrence wins)", got[0])
	}
	if got[1].Sensor != "rh" {
		t.Errorf("second reading = %+v, want rh", got[1])
	}
}

func TestCleanReadings_Idempotent(t *testing.T) {
	clean := CleanReadings([]types.Reading{
		{Sensor: "b_temp", Value: 1},
		{Sensor: "a_rh", Value: 2},
		{Sensor: "c_co2", Value: 3},
	})

	again := CleanReadings(clean)

	if !reflect.DeepEqual(again, clean) {
		t.Fatalf("cleaning already-clean input changed it:\n got %+v\nwant %+v", again, clean)
	}
}

func TestCleanReadings_SortIsOrdinal(t *testing.T) {
	got := CleanReadings([]types.Reading{
		{Sensor: "alpha", Value: 1},
		{Sensor: "Beta", Value: 2},
	})

	// Case-sensitive ordinal order: uppercase sorts before lowercase.
	if got[0].Sensor != "Beta" || got[1].Sensor != "alpha" {
		t.Fatalf("order = [%s, %s], want [Beta, alpha]", got[0].Sensor, got[1].Sensor)
	}
}

func TestCleanReadings_Empty(t *testing.T) {
	got := CleanReadings(nil)
	if len(got) != 0 {
		t.Fatalf("CleanReadings(nil) = %+v, want empty", got)
	}
}
