package normalizer

import "strings"

// unitDef places a unit within a dimension as an affine transform to the
// dimension's base unit: base = value*scale + offset. Offset is only used by
// the temperature units.
type unitDef struct {
	dim    string
	scale  float64
	offset float64
}

// unitTable covers the unit families seen in vendor spec sheets. Lookups are
// case-sensitive after alias folding since "mW" and "MW" differ.
var unitTable = map[string]unitDef{
	// Voltage (base V)
	"mV": {dim: "voltage", scale: 0.001},
	"V":  {dim: "voltage", scale: 1},
	"kV": {dim: "voltage", scale: 1000},

	// Current (base A)
	"mA": {dim: "current", scale: 0.001},
	"A":  {dim: "current", scale: 1},

	// Power (base W)
	"mW": {dim: "power", scale: 0.001},
	"W":  {dim: "power", scale: 1},
	"kW": {dim: "power", scale: 1000},

	// Temperature (base degC)
	"degC": {dim: "temperature", scale: 1},
	"degF": {dim: "temperature", scale: 5.0 / 9.0, offset: -160.0 / 9.0},

	// Length (base mm)
	"mm": {dim: "length", scale: 1},
	"cm": {dim: "length", scale: 10},
	"m":  {dim: "length", scale: 1000},

	// Mass (base kg)
	"g":  {dim: "mass", scale: 0.001},
	"kg": {dim: "mass", scale: 1},

	// Frequency (base Hz)
	"Hz":  {dim: "frequency", scale: 1},
	"kHz": {dim: "frequency", scale: 1000},
	"MHz": {dim: "frequency", scale: 1e6},
	"GHz": {dim: "frequency", scale: 1e9},

	// Pressure (base bar)
	"bar": {dim: "pressure", scale: 1},
	"kPa": {dim: "pressure", scale: 0.01},
	"MPa": {dim: "pressure", scale: 10},
	"GPa": {dim: "pressure", scale: 10000},
}

// unitAliases folds common spellings onto table keys.
var unitAliases = map[string]string{
	"°C":      "degC",
	"°F":      "degF",
	"C":       "degC",
	"F":       "degF",
	"volt":    "V",
	"volts":   "V",
	"amp":     "A",
	"amps":    "A",
	"watt":    "W",
	"watts":   "W",
	"hz":      "Hz",
	"khz":     "kHz",
	"mhz":     "MHz",
	"ghz":     "GHz",
	"kpa":     "kPa",
	"mpa":     "MPa",
	"gpa":     "GPa",
}

func canonicalUnit(u string) string {
	u = strings.TrimSpace(u)
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}

// convert maps v from one unit to another within the same dimension.
// Returns false when either unit is unknown or the dimensions differ.
func convert(v float64, from, to string) (float64, bool) {
	from = canonicalUnit(from)
	to = canonicalUnit(to)
	if from == to {
		return v, true
	}
	f, ok := unitTable[from]
	if !ok {
		return 0, false
	}
	t, ok := unitTable[to]
	if !ok || f.dim != t.dim {
		return 0, false
	}
	base := v*f.scale + f.offset
	return (base - t.offset) / t.scale, true
}
