package cad

// Static registries mapping drawing-format codes to their meaning.
// These are pure lookup tables built once at init and never mutated.

// Header variable names used by the takeoff pipeline.
const (
	HeaderDimScale = "$DIMSCALE"
	HeaderDimLFac  = "$DIMLFAC"
	HeaderInsUnits = "$INSUNITS"
	HeaderLUnits   = "$LUNITS"
	HeaderLUPrec   = "$LUPREC"
)

// INSUNITS codes. Only codes the pipeline can convert are listed;
// unknown codes fall back to UnitUnspecified handling.
const (
	UnitUnspecified = 0
	UnitInches      = 1
	UnitFeet        = 2
	UnitMiles       = 3
	UnitMillimeters = 4
	UnitCentimeters = 5
	UnitMeters      = 6
	UnitKilometers  = 7
)

// HeaderVariable describes a header scalar the reader may supply.
type HeaderVariable struct {
	Name        string
	GroupCode   int
	Default     float64
	Description string
}

// headerVariables is keyed by variable name, e.g. "$DIMSCALE".
var headerVariables = map[string]HeaderVariable{
	HeaderDimScale: {HeaderDimScale, 40, 1.0, "Overall dimensioning scale factor"},
	HeaderDimLFac:  {HeaderDimLFac, 40, 1.0, "Linear dimension scale factor"},
	HeaderInsUnits: {HeaderInsUnits, 70, 0, "Drawing units for inserted content"},
	HeaderLUnits:   {HeaderLUnits, 70, 2, "Linear units format"},
	HeaderLUPrec:   {HeaderLUPrec, 70, 4, "Linear units decimal places"},
}

// LookupHeaderVariable returns the descriptor for a header variable name.
func LookupHeaderVariable(name string) (HeaderVariable, bool) {
	v, ok := headerVariables[name]
	return v, ok
}

// HeaderDefault returns the registered default for a header variable,
// or 0 for unknown names.
func HeaderDefault(name string) float64 {
	return headerVariables[name].Default
}

// unitNames maps INSUNITS codes to display names.
var unitNames = map[int]string{
	UnitUnspecified: "unspecified",
	UnitInches:      "inches",
	UnitFeet:        "feet",
	UnitMiles:       "miles",
	UnitMillimeters: "millimeters",
	UnitCentimeters: "centimeters",
	UnitMeters:      "meters",
	UnitKilometers:  "kilometers",
}

// UnitName returns a human-readable name for an INSUNITS code.
func UnitName(code int) string {
	if name, ok := unitNames[code]; ok {
		return name
	}
	return "other"
}

// entityKindNames maps entity kinds to descriptions, mirroring the
// format reference. Used for diagnostics and API payloads only.
var entityKindNames = map[EntityKind]string{
	KindLine:       "line",
	KindPolyline:   "lightweight polyline",
	KindPolyline2D: "polyline",
	KindArc:        "arc",
	KindCircle:     "circle",
	KindSpline:     "spline",
	KindInsert:     "block reference",
}

// KindDescription returns a human-readable description of an entity kind.
func KindDescription(k EntityKind) string {
	if d, ok := entityKindNames[k]; ok {
		return d
	}
	return string(k)
}
