// Package poststrat reduces posterior draws of cell probabilities
// against a population frequency table, producing population and
// subgroup probability estimates with credible intervals.
package poststrat

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jgabry/mrp"
)

// Estimate summarizes the posterior distribution of a poststratified
// probability.
type Estimate struct {

	// One poststratified value per posterior draw
	Draws []float64

	// Posterior mean and standard deviation
	Mean float64
	SD   float64

	// Central credible interval
	Lo float64
	Hi float64
}

func newEstimate(draws []float64, prob float64) *Estimate {

	est := &Estimate{Draws: draws}
	est.Mean, est.SD = mrp.MeanSD(draws)
	est.Lo, est.Hi = mrp.CredibleInterval(draws, prob)

	return est
}

// Factor identifies one of the grouping factors of a cell table.
type Factor int

// AgeFactor, IncomeFactor, and StateFactor identify the grouping
// factors of a cell table.
const (
	AgeFactor Factor = iota
	IncomeFactor
	StateFactor
)

// levels returns the per-cell level indices and the number of levels
// of a factor.
func levels(tbl *mrp.CellTable, f Factor) ([]int, int, error) {

	switch f {
	case AgeFactor:
		return tbl.Age, tbl.NumAge, nil
	case IncomeFactor:
		return tbl.Income, tbl.NumIncome, nil
	case StateFactor:
		return tbl.State, tbl.NumState, nil
	default:
		return nil, 0, fmt.Errorf("poststrat: unknown factor %d", f)
	}
}

func checkDims(probs *mat.Dense, tbl *mrp.CellTable) (int, int, error) {

	ns, nc := probs.Dims()
	if nc != tbl.NumCells() {
		return 0, 0, fmt.Errorf("poststrat: probability matrix has %d columns, table has %d cells",
			nc, tbl.NumCells())
	}
	if ns == 0 {
		return 0, 0, fmt.Errorf("poststrat: probability matrix has no rows")
	}
	if tbl.Total() <= 0 {
		return 0, 0, fmt.Errorf("poststrat: population is empty")
	}

	return ns, nc, nil
}

// Population poststratifies the draws-by-cell probability matrix
// against the cell counts of the table, returning the population
// estimate.  prob is the coverage of the credible interval.
func Population(probs *mat.Dense, tbl *mrp.CellTable, prob float64) (*Estimate, error) {

	ns, nc, err := checkDims(probs, tbl)
	if err != nil {
		return nil, err
	}

	total := tbl.Total()
	w := mat.NewVecDense(nc, nil)
	for j, c := range tbl.Count {
		w.SetVec(j, c/total)
	}

	var v mat.VecDense
	v.MulVec(probs, w)

	draws := make([]float64, ns)
	for i := range draws {
		draws[i] = v.AtVec(i)
	}

	return newEstimate(draws, prob), nil
}

// ByFactor poststratifies within each level of one grouping factor,
// returning one estimate per level.  Within a level, cells are
// weighted by their share of the level's population.
func ByFactor(probs *mat.Dense, tbl *mrp.CellTable, f Factor, prob float64) ([]*Estimate, error) {

	ns, nc, err := checkDims(probs, tbl)
	if err != nil {
		return nil, err
	}

	lev, nlev, err := levels(tbl, f)
	if err != nil {
		return nil, err
	}

	sub := make([]float64, nlev)
	for j, c := range tbl.Count {
		sub[lev[j]] += c
	}
	for l, s := range sub {
		if s <= 0 {
			return nil, fmt.Errorf("poststrat: level %d of the factor has no population", l)
		}
	}

	// One weight column per level
	w := mat.NewDense(nc, nlev, nil)
	for j, c := range tbl.Count {
		w.Set(j, lev[j], c/sub[lev[j]])
	}

	var v mat.Dense
	v.Mul(probs, w)

	ests := make([]*Estimate, nlev)
	for l := 0; l < nlev; l++ {
		draws := make([]float64, ns)
		for i := range draws {
			draws[i] = v.At(i, l)
		}
		ests[l] = newEstimate(draws, prob)
	}

	return ests, nil
}

// Raw returns the unweighted survey mean of the outcome within each
// level of a categorical survey variable, together with the level
// sample sizes.  Levels with no observations get a zero mean and
// count.
func Raw(data *mrp.Dataset, yvar, levelvar string, nlevels int) ([]float64, []int, error) {

	y, err := data.Column(yvar)
	if err != nil {
		return nil, nil, err
	}
	lv, err := data.Column(levelvar)
	if err != nil {
		return nil, nil, err
	}

	mean := make([]float64, nlevels)
	count := make([]int, nlevels)

	for i := range y {
		l := int(lv[i])
		if l < 0 || l >= nlevels {
			return nil, nil, fmt.Errorf("poststrat: level %d of '%s' out of range", l, levelvar)
		}
		mean[l] += y[i]
		count[l]++
	}

	for l := range mean {
		if count[l] > 0 {
			mean[l] /= float64(count[l])
		}
	}

	return mean, count, nil
}

// Summary returns a summary table of subgroup estimates, with the raw
// survey means alongside for comparison.  raw may be nil.
func Summary(title string, labels []string, ests []*Estimate, raw []float64) *mrp.SummaryTable {

	mean := make([]float64, len(ests))
	lo := make([]float64, len(ests))
	hi := make([]float64, len(ests))
	for l, est := range ests {
		mean[l] = est.Mean
		lo[l] = est.Lo
		hi[l] = est.Hi
	}

	names := []string{"Group", "MRP", "LCB", "UCB"}
	fmts := []mrp.Fmter{mrp.StringFmt, mrp.FloatFmt, mrp.FloatFmt, mrp.FloatFmt}
	cols := []interface{}{labels, mean, lo, hi}

	if raw != nil {
		names = append(names, "Raw")
		fmts = append(fmts, mrp.FloatFmt)
		cols = append(cols, raw)
	}

	return &mrp.SummaryTable{
		Title:    title,
		ColNames: names,
		ColFmt:   fmts,
		Cols:     cols,
	}
}
