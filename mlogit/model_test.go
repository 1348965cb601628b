package mlogit

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/jgabry/mrp"
	"github.com/jgabry/mrp/simulate"
)

// A small dataset with three age groups, two income groups, and three
// states.
func data1() *mrp.Dataset {

	y := []float64{0, 1, 1, 0, 1, 0, 1, 1}
	age := []float64{0, 1, 2, 0, 1, 2, 0, 1}
	income := []float64{0, 1, 0, 1, 0, 1, 0, 0}
	state := []float64{0, 0, 1, 1, 2, 2, 1, 0}
	stcov := []float64{0.5, 0.5, -1, -1, 0.2, 0.2, -1, 0.5}

	da := [][]float64{y, age, income, state, stcov}
	na := []string{"y", "age", "income", "state", "stcov"}

	ds, err := mrp.NewDataset(da, na)
	if err != nil {
		panic(err)
	}

	return ds
}

func testParams() [][]float64 {
	return [][]float64{
		make([]float64, 13),
		{0.3, -0.2, 0.1, -0.1, 0.2, 0.1, -0.2, 0.3, 0.2, -0.1, -0.3, 0.1, 0.2},
		{-1, 1, -0.5, 0.5, -0.2, 0.4, 0.1, -0.5, -0.2, 0.2, 0.3, -0.1, -0.2},
	}
}

func TestModelLayout(t *testing.T) {

	m, err := NewModel(data1(), "y", nil)
	if err != nil {
		t.Fatal(err)
	}

	if m.NumObs() != 8 {
		t.Errorf("wrong number of observations: %d", m.NumObs())
	}

	if m.NumAge() != 3 || m.NumIncome() != 2 || m.NumState() != 3 {
		t.Errorf("wrong factor dimensions: %d, %d, %d", m.NumAge(), m.NumIncome(), m.NumState())
	}

	if m.NumParams() != 13 {
		t.Errorf("wrong number of parameters: %d", m.NumParams())
	}

	names := m.ParamNames()
	if len(names) != m.NumParams() {
		t.Fatalf("wrong number of parameter names: %d", len(names))
	}
	if names[0] != "icept" || names[5] != "age=0" || names[8] != "income=0" || names[10] != "state=0" {
		t.Errorf("wrong parameter names: %v", names)
	}

	x := testParams()[2]
	if len(m.AgeEff(x)) != 3 || len(m.IncomeEff(x)) != 2 || len(m.StateEff(x)) != 3 {
		t.Errorf("wrong effect block lengths")
	}
	if m.AgeEff(x)[0] != x[5] || m.IncomeEff(x)[0] != x[8] || m.StateEff(x)[2] != x[12] {
		t.Errorf("wrong effect block positions")
	}
}

func TestModelErrors(t *testing.T) {

	ds := data1()

	if _, err := NewModel(ds, "z", nil); err == nil {
		t.Errorf("expected error for missing outcome")
	}

	cfg := DefaultConfig()
	cfg.AgeVar = "nosuch"
	if _, err := NewModel(ds, "y", cfg); err == nil {
		t.Errorf("expected error for missing grouping variable")
	}

	cfg = DefaultConfig()
	cfg.NumState = 2 // the data contain state=2
	if _, err := NewModel(ds, "y", cfg); err == nil {
		t.Errorf("expected error for out of range level")
	}

	// Non-binary outcome
	da := [][]float64{{0, 2}, {0, 0}, {0, 0}, {0, 0}, {0, 0}}
	na := []string{"y", "age", "income", "state", "stcov"}
	ds2, err := mrp.NewDataset(da, na)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewModel(ds2, "y", nil); err == nil {
		t.Errorf("expected error for non-binary outcome")
	}
}

// Direct computation of the Bernoulli log-likelihood, for comparison
// with the model's streamlined form.
func directLogLike(ds *mrp.Dataset, x []float64) float64 {

	y, _ := ds.Column("y")
	age, _ := ds.Column("age")
	income, _ := ds.Column("income")
	state, _ := ds.Column("state")
	stcov, _ := ds.Column("stcov")

	var ll float64
	for i := range y {
		eta := x[0] + x[1]*stcov[i]
		eta += x[5+int(age[i])]
		eta += x[8+int(income[i])]
		eta += x[10+int(state[i])]
		p := 1 / (1 + math.Exp(-eta))
		ll += y[i]*math.Log(p) + (1-y[i])*math.Log(1-p)
	}

	return ll
}

func TestLogLike(t *testing.T) {

	ds := data1()
	m, err := NewModel(ds, "y", nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, x := range testParams() {
		ll := m.LogLike(x)
		lld := directLogLike(ds, x)
		if math.Abs(ll-lld) > 1e-10 {
			t.Errorf("log-likelihood mismatch: %f != %f", ll, lld)
		}
	}
}

func normalLogp(mu, sigma, x float64) float64 {
	z := (x - mu) / sigma
	return -0.5*math.Log(2*math.Pi) - math.Log(sigma) - z*z/2
}

func TestLogPost(t *testing.T) {

	ds := data1()
	m, err := NewModel(ds, "y", nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, x := range testParams() {

		lp := directLogLike(ds, x)
		lp += normalLogp(0, 3, x[0]) + normalLogp(0, 3, x[1])
		for _, j := range []int{2, 3, 4} {
			lp += normalLogp(0, 1, x[j])
		}
		for k := 0; k < 3; k++ {
			lp += normalLogp(0, math.Exp(x[2]), x[5+k])
		}
		for k := 0; k < 2; k++ {
			lp += normalLogp(0, math.Exp(x[3]), x[8+k])
		}
		for k := 0; k < 3; k++ {
			lp += normalLogp(0, math.Exp(x[4]), x[10+k])
		}

		if math.Abs(m.LogPost(x)-lp) > 1e-8 {
			t.Errorf("log posterior mismatch: %f != %f", m.LogPost(x), lp)
		}

		// Observe agrees with LogPost
		if m.Observe(x) != m.LogPost(x) {
			t.Errorf("Observe does not agree with LogPost")
		}
	}
}

func TestCellProbs(t *testing.T) {

	ds := data1()
	m, err := NewModel(ds, "y", nil)
	if err != nil {
		t.Fatal(err)
	}

	statecov := []float64{0.5, -1, 0.2}
	tbl, err := mrp.NewCellTable(3, 2, 3, statecov)
	if err != nil {
		t.Fatal(err)
	}

	// At zero, every cell probability is one half.
	pr, err := m.CellProbs([][]float64{make([]float64, 13)}, tbl)
	if err != nil {
		t.Fatal(err)
	}
	nr, nc := pr.Dims()
	if nr != 1 || nc != tbl.NumCells() {
		t.Fatalf("wrong dimensions: %d x %d", nr, nc)
	}
	for j := 0; j < nc; j++ {
		if math.Abs(pr.At(0, j)-0.5) > 1e-12 {
			t.Errorf("cell %d has probability %f, expected 0.5", j, pr.At(0, j))
		}
	}

	// Hand computation for one cell at a nonzero point
	x := testParams()[1]
	pr, err = m.CellProbs([][]float64{x}, tbl)
	if err != nil {
		t.Fatal(err)
	}
	j := tbl.CellIndex(2, 1, 0)
	eta := x[0] + x[1]*statecov[0] + x[5+2] + x[8+1] + x[10+0]
	want := 1 / (1 + math.Exp(-eta))
	if math.Abs(pr.At(0, j)-want) > 1e-12 {
		t.Errorf("cell probability mismatch: %f != %f", pr.At(0, j), want)
	}

	// Dimension mismatch
	tbl2, err := mrp.NewCellTable(2, 2, 3, statecov)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.CellProbs([][]float64{x}, tbl2); err == nil {
		t.Errorf("expected error for mismatched table")
	}
}

func TestMAP(t *testing.T) {

	cfg := simulate.DefaultConfig()
	cfg.NumAge = 3
	cfg.NumIncome = 3
	cfg.NumState = 5
	cfg.NumObs = 500
	cfg.CellSize = 100
	cfg.Seed = 7

	ds, _, _, err := simulate.Simulate(cfg)
	if err != nil {
		t.Fatal(err)
	}

	m, err := NewModel(ds, "y", nil)
	if err != nil {
		t.Fatal(err)
	}

	rslt, err := m.MAP(nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(rslt.Params) != m.NumParams() {
		t.Fatalf("wrong parameter length: %d", len(rslt.Params))
	}

	// The mode improves on the starting point.
	if rslt.LogPost < m.LogPost(make([]float64, m.NumParams())) {
		t.Errorf("MAP did not improve the log posterior")
	}

	// The gradient vanishes at the mode.
	score := make([]float64, m.NumParams())
	m.Score(rslt.Params, score)
	if floats.Norm(score, 2) > 1e-3 {
		t.Errorf("gradient norm %e at the mode", floats.Norm(score, 2))
	}
}
