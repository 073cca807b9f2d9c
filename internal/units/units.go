// Package units provides drawing-unit interpretation and length
// conversion helpers shared by the takeoff pipeline and the reporting
// layer. Lengths are stored internally in drawing units, which for
// architectural plans are assumed to be millimeters when unspecified.
package units

import "github.com/takeoff-data/wallquant/internal/cad"

// factorToMM maps an INSUNITS code to the multiplier that converts one
// drawing unit into millimeters. Unspecified drawings are assumed to be
// millimeters already.
var factorToMM = map[int]float64{
	cad.UnitUnspecified: 1.0,
	cad.UnitInches:      25.4,
	cad.UnitFeet:        304.8,
	cad.UnitMiles:       1609344.0,
	cad.UnitMillimeters: 1.0,
	cad.UnitCentimeters: 10.0,
	cad.UnitMeters:      1000.0,
	cad.UnitKilometers:  1000000.0,
}

// FactorToMillimeters returns the multiplier converting one drawing
// unit into millimeters for the given INSUNITS code. Unknown codes
// return 1 (treated as millimeters).
func FactorToMillimeters(insUnits int) float64 {
	if f, ok := factorToMM[insUnits]; ok {
		return f
	}
	return 1.0
}

// IsConvertible reports whether the INSUNITS code has a registered
// millimeter conversion factor.
func IsConvertible(insUnits int) bool {
	_, ok := factorToMM[insUnits]
	return ok
}

// MillimetersToMeters converts a millimeter length for display.
func MillimetersToMeters(mm float64) float64 {
	return mm / 1000.0
}
