package vector

import "math"

// DotProduct returns the inner product of a and b. Slices must have equal length.
func DotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	na := DotProduct(a, a)
	nb := DotProduct(b, b)
	if na == 0 || nb == 0 {
		return 0
	}
	return DotProduct(a, b) / (math.Sqrt(na) * math.Sqrt(nb))
}
