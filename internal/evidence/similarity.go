package evidence

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity returns the cosine of the angle between two embeddings,
// or 0 when they differ in length or either is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	x := make([]float64, len(a))
	y := make([]float64, len(b))
	for i := range a {
		x[i] = float64(a[i])
		y[i] = float64(b[i])
	}
	magX := math.Sqrt(floats.Dot(x, x))
	magY := math.Sqrt(floats.Dot(y, y))
	if magX == 0 || magY == 0 {
		return 0
	}
	return floats.Dot(x, y) / (magX * magY)
}
