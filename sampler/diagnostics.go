package sampler

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// column extracts parameter j of one chain as a sequence.
func column(chain [][]float64, j int) []float64 {
	x := make([]float64, len(chain))
	for i := range chain {
		x[i] = chain[i][j]
	}
	return x
}

// splitHalves splits each chain into two half-chains of equal length,
// dropping the middle draw of odd-length chains.
func splitHalves(chains [][][]float64, j int) [][]float64 {

	var seqs [][]float64
	for _, ch := range chains {
		if len(ch) < 4 {
			continue
		}
		x := column(ch, j)
		n := len(x) / 2
		seqs = append(seqs, x[0:n], x[len(x)-n:])
	}

	return seqs
}

// rhat computes the split-Rhat statistic of Gelman et al. for every
// parameter.  Values near 1 indicate that the chains are consistent
// with one another.
func rhat(chains [][][]float64) []float64 {

	if len(chains) == 0 || len(chains[0]) == 0 {
		return nil
	}
	np := len(chains[0][0])

	r := make([]float64, np)
	for j := 0; j < np; j++ {

		seqs := splitHalves(chains, j)
		if len(seqs) < 2 {
			r[j] = math.NaN()
			continue
		}

		n := float64(len(seqs[0]))
		means := make([]float64, len(seqs))
		var w float64
		for k, x := range seqs {
			var v float64
			means[k], v = stat.MeanVariance(x, nil)
			w += v
		}
		w /= float64(len(seqs))

		b := n * stat.Variance(means, nil)

		if w == 0 {
			r[j] = 1
			continue
		}

		vplus := (n-1)/n*w + b/n
		r[j] = math.Sqrt(vplus / w)
	}

	return r
}

// ess computes a rough effective sample size per parameter from the
// within-chain autocorrelations, truncated at the first negative
// autocorrelation.
func ess(chains [][][]float64) []float64 {

	if len(chains) == 0 || len(chains[0]) == 0 {
		return nil
	}
	np := len(chains[0][0])

	var total int
	for _, ch := range chains {
		total += len(ch)
	}

	e := make([]float64, np)
	for j := 0; j < np; j++ {

		tau := 1.0
		for t := 1; ; t++ {
			rho := meanAutocor(chains, j, t)
			if math.IsNaN(rho) || rho <= 0 {
				break
			}
			tau += 2 * rho
		}

		e[j] = float64(total) / tau
	}

	return e
}

// meanAutocor returns the lag-t autocorrelation of parameter j,
// averaged over chains.  NaN is returned when no chain is long enough.
func meanAutocor(chains [][][]float64, j, t int) float64 {

	var rho float64
	var nc int

	for _, ch := range chains {
		if len(ch) <= t+1 {
			continue
		}

		x := column(ch, j)
		mn, v := stat.MeanVariance(x, nil)
		if v == 0 {
			continue
		}

		var c float64
		for i := 0; i+t < len(x); i++ {
			c += (x[i] - mn) * (x[i+t] - mn)
		}
		c /= float64(len(x) - t)

		rho += c / v
		nc++
	}

	if nc == 0 {
		return math.NaN()
	}

	return rho / float64(nc)
}
