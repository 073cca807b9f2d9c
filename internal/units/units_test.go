package units

import (
	"testing"

	"github.com/takeoff-data/wallquant/internal/cad"
)

func TestFactorToMillimeters(t *testing.T) {
	tests := []struct {
		name string
		code int
		want float64
	}{
		{"unspecified assumes mm", cad.UnitUnspecified, 1.0},
		{"millimeters", cad.UnitMillimeters, 1.0},
		{"centimeters", cad.UnitCentimeters, 10.0},
		{"meters", cad.UnitMeters, 1000.0},
		{"inches", cad.UnitInches, 25.4},
		{"feet", cad.UnitFeet, 304.8},
		{"unknown code falls back to mm", 99, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FactorToMillimeters(tt.code); got != tt.want {
				t.Errorf("FactorToMillimeters(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsConvertible(t *testing.T) {
	if !IsConvertible(cad.UnitMeters) {
		t.Error("expected meters to be convertible")
	}
	if IsConvertible(99) {
		t.Error("expected unknown code not to be convertible")
	}
}

func TestMillimetersToMeters(t *testing.T) {
	if got := MillimetersToMeters(12500); got != 12.5 {
		t.Errorf("MillimetersToMeters(12500) = %v, want 12.5", got)
	}
}
