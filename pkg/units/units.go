// Package units converts between physical length units and points.
//
// The point (1/72 inch) is the base unit for every template dimension and
// every computed label position. Display units are converted at the edges
// (CLI flags, API payloads) and never stored.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Unit is a physical length unit.
type Unit string

// Supported units.
const (
	Point      Unit = "pt"
	Inch       Unit = "in"
	Millimeter Unit = "mm"
	Centimeter Unit = "cm"
	Pica       Unit = "pc"
)

// pointsPer maps each unit to its size in points.
var pointsPer = map[Unit]float64{
	Point:      1,
	Inch:       72,
	Millimeter: 72 / 25.4,
	Centimeter: 72 / 2.54,
	Pica:       12,
}

// All returns the supported units in display order.
func All() []Unit {
	return []Unit{Point, Inch, Millimeter, Centimeter, Pica}
}

// Parse resolves a unit name, accepting a few common spellings.
func Parse(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pt", "point", "points":
		return Point, nil
	case "in", "inch", "inches", `"`:
		return Inch, nil
	case "mm", "millimeter", "millimeters":
		return Millimeter, nil
	case "cm", "centimeter", "centimeters":
		return Centimeter, nil
	case "pc", "pica", "picas":
		return Pica, nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	_, ok := pointsPer[u]
	return ok
}

func (u Unit) factor() float64 {
	f, ok := pointsPer[u]
	if !ok {
		panic(fmt.Sprintf("units: unknown unit %q", string(u)))
	}
	return f
}

// ToBase converts v expressed in u to points. No rounding is applied.
func ToBase(v float64, u Unit) float64 {
	return v * u.factor()
}

// FromBase converts v points to u, rounded to two decimals.
func FromBase(v float64, u Unit) float64 {
	return Round2(v / u.factor())
}

// Convert converts v from one unit to another, rounded to two decimals.
func Convert(v float64, from, to Unit) float64 {
	return FromBase(ToBase(v, from), to)
}

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
