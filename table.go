package mrp

import "fmt"

// CellTable is a population frequency table over the demographic cells
// formed by crossing age group, income group, and state.  The cells
// are laid out in a fixed order: the state index varies fastest, then
// the income index, then the age index.  Count holds the number of
// population members in each cell and is the poststratification
// weight.  StateCov is a state-level covariate (e.g. the standardized
// average income of the state), indexed by state level, that is
// carried to every cell of the state.
type CellTable struct {

	// Numbers of levels of the three factors
	NumAge    int
	NumIncome int
	NumState  int

	// Level indices per cell
	Age    []int
	Income []int
	State  []int

	// Population count per cell
	Count []float64

	// State-level covariate, indexed by state
	StateCov []float64
}

// NewCellTable constructs a complete cell grid with the given factor
// dimensions and state covariate.  All counts are zero initially.
func NewCellTable(nage, nincome, nstate int, statecov []float64) (*CellTable, error) {

	if nage < 1 || nincome < 1 || nstate < 1 {
		return nil, fmt.Errorf("mrp: cell table dimensions must be positive")
	}

	if len(statecov) != nstate {
		return nil, fmt.Errorf("mrp: state covariate has length %d, expected %d",
			len(statecov), nstate)
	}

	m := nage * nincome * nstate
	tbl := &CellTable{
		NumAge:    nage,
		NumIncome: nincome,
		NumState:  nstate,
		Age:       make([]int, m),
		Income:    make([]int, m),
		State:     make([]int, m),
		Count:     make([]float64, m),
		StateCov:  statecov,
	}

	i := 0
	for a := 0; a < nage; a++ {
		for k := 0; k < nincome; k++ {
			for s := 0; s < nstate; s++ {
				tbl.Age[i] = a
				tbl.Income[i] = k
				tbl.State[i] = s
				i++
			}
		}
	}

	return tbl, nil
}

// NumCells returns the number of demographic cells.
func (tbl *CellTable) NumCells() int {
	return len(tbl.Count)
}

// CellIndex returns the position of the cell with the given level
// indices.
func (tbl *CellTable) CellIndex(age, income, state int) int {

	if age < 0 || age >= tbl.NumAge || income < 0 || income >= tbl.NumIncome ||
		state < 0 || state >= tbl.NumState {
		msg := fmt.Sprintf("mrp: cell (%d, %d, %d) out of range", age, income, state)
		panic(msg)
	}

	return (age*tbl.NumIncome+income)*tbl.NumState + state
}

// Total returns the total population size.
func (tbl *CellTable) Total() float64 {
	var t float64
	for _, c := range tbl.Count {
		t += c
	}
	return t
}

// Validate checks the internal consistency of the table.
func (tbl *CellTable) Validate() error {

	m := tbl.NumAge * tbl.NumIncome * tbl.NumState
	if len(tbl.Age) != m || len(tbl.Income) != m || len(tbl.State) != m || len(tbl.Count) != m {
		return fmt.Errorf("mrp: cell table has inconsistent lengths")
	}

	if len(tbl.StateCov) != tbl.NumState {
		return fmt.Errorf("mrp: state covariate has length %d, expected %d",
			len(tbl.StateCov), tbl.NumState)
	}

	for i := range tbl.Count {
		if tbl.Count[i] < 0 {
			return fmt.Errorf("mrp: cell %d has negative count", i)
		}
		if tbl.Age[i] < 0 || tbl.Age[i] >= tbl.NumAge {
			return fmt.Errorf("mrp: cell %d has age level out of range", i)
		}
		if tbl.Income[i] < 0 || tbl.Income[i] >= tbl.NumIncome {
			return fmt.Errorf("mrp: cell %d has income level out of range", i)
		}
		if tbl.State[i] < 0 || tbl.State[i] >= tbl.NumState {
			return fmt.Errorf("mrp: cell %d has state level out of range", i)
		}
	}

	return nil
}
