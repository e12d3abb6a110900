package ranking

import "math"

// Percentile returns the p-th quantile of sorted values using linear
// interpolation between closest ranks (h = (n-1)p). The bool is false when
// sorted is empty. sorted must be in ascending order.
func Percentile(sorted []float64, p float64) (float64, bool) {
	n := len(sorted)
	if n == 0 {
		return 0, false
	}
	p = math.Min(math.Max(p, 0), 1)
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1], true
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo]), true
}
