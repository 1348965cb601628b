package mlogit

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jgabry/mrp"
)

// CellProbs returns the draws-by-cell matrix of estimated outcome
// probabilities: one row per posterior draw, one column per
// demographic cell of the table.  The table's factor dimensions must
// agree with the model.
func (m *Model) CellProbs(draws [][]float64, tbl *mrp.CellTable) (*mat.Dense, error) {

	if tbl.NumAge != m.nage || tbl.NumIncome != m.ninc || tbl.NumState != m.nst {
		return nil, fmt.Errorf("mlogit: cell table dimensions (%d, %d, %d) do not match the model (%d, %d, %d)",
			tbl.NumAge, tbl.NumIncome, tbl.NumState, m.nage, m.ninc, m.nst)
	}

	if len(draws) == 0 {
		return nil, fmt.Errorf("mlogit: no posterior draws")
	}

	nc := tbl.NumCells()
	pr := mat.NewDense(len(draws), nc, nil)

	for s, x := range draws {

		if len(x) != m.NumParams() {
			return nil, fmt.Errorf("mlogit: draw %d has length %d, expected %d",
				s, len(x), m.NumParams())
		}

		for j := 0; j < nc; j++ {
			eta := x[iceptPos] + x[covPos]*tbl.StateCov[tbl.State[j]]
			eta += x[effStart+tbl.Age[j]]
			eta += x[m.incStart+tbl.Income[j]]
			eta += x[m.stStart+tbl.State[j]]
			pr.Set(s, j, expit(eta))
		}
	}

	return pr, nil
}
