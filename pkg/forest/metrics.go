package forest

import "gonum.org/v1/gonum/stat"

// R2 is the coefficient of determination of pred against truth.
// Constant truth scores 1 for a perfect fit and 0 otherwise.
func R2(truth, pred []float64) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return 0
	}
	mean := stat.Mean(truth, nil)
	var ssRes, ssTot float64
	for i, y := range truth {
		r := y - pred[i]
		ssRes += r * r
		d := y - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
