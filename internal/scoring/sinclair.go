// Package scoring implements the pure scoring-formula and team-points
// helpers from spec.md §4.9. None of these hold hub state; they are
// called by projections.
package scoring

import "math"

// SinclairCoefficients holds the per-gender (a, b) constants for one
// published coefficient year.
type SinclairCoefficients struct {
	Year  int
	MaleA float64
	MaleB float64
	FemaleA float64
	FemaleB float64
}

// Sinclair2020 and Sinclair2024 are the two coefficient tables spec.md
// §4.9 requires ("two coefficient tables by year").
var (
	Sinclair2020 = SinclairCoefficients{Year: 2020, MaleA: 0.751945030, MaleB: 175.508, FemaleA: 0.783497476, FemaleB: 153.655}
	Sinclair2024 = SinclairCoefficients{Year: 2024, MaleA: 0.722762521, MaleB: 193.609, FemaleA: 0.787004341, FemaleB: 153.757}
)

// Sinclair computes the Sinclair total (total multiplied by the
// Sinclair coefficient) for a body weight and total, using the given
// table. Body weights at or above the B threshold use a coefficient of
// 1.0 (no correction above the reference weight).
func Sinclair(table SinclairCoefficients, gender string, bodyWeightKg, total float64) float64 {
	if total <= 0 {
		return 0
	}
	a, b := table.MaleA, table.MaleB
	if gender == "F" {
		a, b = table.FemaleA, table.FemaleB
	}
	if bodyWeightKg >= b {
		return total
	}
	logTerm := math.Log10(bodyWeightKg / b)
	coefficient := math.Pow(10, a*logTerm*logTerm)
	return total * coefficient
}

// QPoints applies the same log-quadratic shape as Sinclair with a
// distinct, heavier-set coefficient table, per spec.md §4.9.
func QPoints(gender string, bodyWeightKg, total float64) float64 {
	table := SinclairCoefficients{MaleA: 0.3123568, MaleB: 175.508, FemaleA: 0.2705632, FemaleB: 153.655}
	return Sinclair(table, gender, bodyWeightKg, total)
}

// gamxAgeFactor is the masters age-factor multiplier table, indexed by
// age band floor. Ages below 30 use 1.0 (no masters adjustment); ages
// at or above 85 use the 85 band.
var gamxAgeFactor = map[int]float64{
	30: 1.000, 35: 1.063, 40: 1.117, 45: 1.192, 50: 1.267,
	55: 1.350, 60: 1.438, 65: 1.537, 70: 1.642, 75: 1.759,
	80: 1.886, 85: 2.024,
}

// GAMX is the smoothness-adjusted Sinclair variant with masters
// age-factor multipliers, per spec.md §4.9.
func GAMX(table SinclairCoefficients, gender string, bodyWeightKg, total float64, age int) float64 {
	base := Sinclair(table, gender, bodyWeightKg, total)
	if age < 30 {
		return base
	}
	factor := 1.0
	bestFloor := 0
	for floor, f := range gamxAgeFactor {
		if age >= floor && floor >= bestFloor {
			bestFloor = floor
			factor = f
		}
	}
	return base * factor
}
