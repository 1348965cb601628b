package mrp

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MeanSD returns the mean and standard deviation of a set of posterior
// draws.
func MeanSD(draws []float64) (float64, float64) {
	mn, sd := stat.MeanStdDev(draws, nil)
	return mn, sd
}

// CredibleInterval returns the central credible interval covering the
// given probability, computed from the empirical quantiles of the
// draws.
func CredibleInterval(draws []float64, prob float64) (float64, float64) {

	if prob <= 0 || prob >= 1 {
		msg := fmt.Sprintf("mrp: interval probability %f out of range", prob)
		panic(msg)
	}

	x := make([]float64, len(draws))
	copy(x, draws)
	sort.Float64s(x)

	q := (1 - prob) / 2
	lo := stat.Quantile(q, stat.Empirical, x, nil)
	hi := stat.Quantile(1-q, stat.Empirical, x, nil)

	return lo, hi
}
