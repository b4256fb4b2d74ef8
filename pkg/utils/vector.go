package utils

import (
	"math"
)

// Magnitude returns the L2 norm of v.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns v scaled to unit length, or nil when v is empty or zero.
func Normalize(v []float32) []float32 {
	mag := Magnitude(v)
	if mag == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / mag)
	}
	return out
}

// NormalizeRows normalizes every row. Zero rows become nil and score 0
// against anything.
func NormalizeRows(rows [][]float32) [][]float32 {
	out := make([][]float32, len(rows))
	for i, r := range rows {
		out[i] = Normalize(r)
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Mismatched, empty or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := Magnitude(a), Magnitude(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return unitDot(a, b) / (na * nb)
}

// UnitSimilarity scores two unit vectors, as produced by Normalize, into
// [0, 1]. It equals ClampUnit(CosineSimilarity(a, b)) without recomputing norms.
func UnitSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return ClampUnit(unitDot(a, b))
}

func unitDot(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// ClampUnit clamps a similarity score into [0, 1]. Negative correlation is
// no better than none for linking.
func ClampUnit(score float64) float64 {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
