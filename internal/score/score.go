// Package score implements the preference scorer: a pure weighted linear
// combination of normalized distance and price, lower is better.
package score

// Weights holds a user's importance weights on a 1..5 scale.
type Weights struct {
	Distance int
	Price    int
}

// Clamp forces both weights into the valid 1..5 range, substituting the
// neutral value for unset (zero) weights.
func (w Weights) Clamp() Weights {
	clamp := func(v int) int {
		if v <= 0 {
			return 3
		}
		if v > 5 {
			return 5
		}
		return v
	}
	return Weights{Distance: clamp(w.Distance), Price: clamp(w.Price)}
}

// fractions rescales the two weights so they sum to 1.
func (w Weights) fractions() (distance, price float64) {
	sum := float64(w.Distance + w.Price)
	if sum == 0 {
		return 0.5, 0.5
	}
	return float64(w.Distance) / sum, float64(w.Price) / sum
}

// Normalize scales each value against the maximum of the set into [0, 1].
// A uniform set (all candidates identical on this axis) normalizes to all
// zeros, so the axis drops out of the ordering.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	max, uniform := values[0], true
	for _, v := range values[1:] {
		if v != values[0] {
			uniform = false
		}
		if v > max {
			max = v
		}
	}
	if uniform || max == 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / max
	}
	return out
}

// Overall combines a candidate's normalized distance and price scores into
// a single scalar. Lower is better; a stable ascending sort over Overall
// values yields a best-first ordering.
func Overall(distScore, priceScore float64, w Weights) float64 {
	dw, pw := w.fractions()
	return distScore*dw + priceScore*pw
}

// Rank scores a result set: distances and prices are normalized over the
// set, then combined per candidate. The two slices must be the same
// length; the returned slice is index-aligned with the inputs.
func Rank(distances, prices []float64, w Weights) []float64 {
	distScores := Normalize(distances)
	priceScores := Normalize(prices)

	scores := make([]float64, len(distances))
	for i := range scores {
		scores[i] = Overall(distScores[i], priceScores[i], w)
	}
	return scores
}
