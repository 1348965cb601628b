// Package simulate generates synthetic survey data with demographic
// and geographic structure, together with the population frequency
// table needed for poststratification.
//
// The population is divided into cells by crossing age group, income
// group, and state.  Each grouping factor contributes an independent
// normal random effect to the log odds of a binary outcome, and a
// state-level covariate enters with a fixed slope.  The survey is
// drawn from the population with a configurable selection bias, so
// that the raw survey means are distorted relative to the population
// and poststratification has something to correct.
package simulate

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jgabry/mrp"
)

// Config describes a simulated survey.
type Config struct {

	// Numbers of levels of the grouping factors
	NumAge    int
	NumIncome int
	NumState  int

	// Number of survey responses
	NumObs int

	// True fixed effects: the intercept and the slope of the
	// state-level covariate
	Intercept float64
	CovSlope  float64

	// True standard deviations of the group random effects
	AgeScale    float64
	IncomeScale float64
	StateScale  float64

	// Strength of the selection bias in the survey.  Zero means
	// the survey is a simple random sample of the population;
	// positive values over-represent the upper age and income
	// groups.
	Bias float64

	// Baseline population size per cell
	CellSize float64

	// Seed for the random number generator
	Seed uint64
}

// DefaultConfig returns a default simulation configuration.
func DefaultConfig() *Config {
	return &Config{
		NumAge:      7,
		NumIncome:   5,
		NumState:    50,
		NumObs:      1200,
		Intercept:   -0.5,
		CovSlope:    0.6,
		AgeScale:    0.4,
		IncomeScale: 0.3,
		StateScale:  0.5,
		Bias:        1.0,
		CellSize:    500,
		Seed:        1,
	}
}

// Truth holds the parameter values used to generate a simulated
// survey, for comparison with estimates.
type Truth struct {

	// Fixed effects
	Intercept float64
	CovSlope  float64

	// Group random effects
	AgeEff    []float64
	IncomeEff []float64
	StateEff  []float64

	// State-level covariate
	StateCov []float64

	// True outcome probability per demographic cell, in the cell
	// order of the table
	CellProb []float64
}

// PopMean returns the true population mean outcome implied by the
// cell probabilities and the cell counts of the given table.
func (tr *Truth) PopMean(tbl *mrp.CellTable) float64 {
	var num, den float64
	for i, c := range tbl.Count {
		num += c * tr.CellProb[i]
		den += c
	}
	return num / den
}

func expit(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Simulate generates a survey dataset and the matching population
// cell table.  The returned dataset has columns y, age, income, state,
// and stcov; the categorical columns hold zero-based level indices.
func Simulate(cfg *Config) (*mrp.Dataset, *mrp.CellTable, *Truth, error) {

	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.NumAge < 2 || cfg.NumIncome < 2 || cfg.NumState < 2 {
		return nil, nil, nil, fmt.Errorf("simulate: each factor needs at least two levels")
	}
	if cfg.NumObs < 1 {
		return nil, nil, nil, fmt.Errorf("simulate: NumObs must be positive")
	}
	if cfg.CellSize <= 0 {
		return nil, nil, nil, fmt.Errorf("simulate: CellSize must be positive")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	stdnorm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}

	// State-level covariate
	statecov := make([]float64, cfg.NumState)
	for i := range statecov {
		statecov[i] = stdnorm.Rand()
	}

	// Group random effects
	draw := func(n int, scale float64) []float64 {
		x := make([]float64, n)
		for i := range x {
			x[i] = scale * stdnorm.Rand()
		}
		return x
	}
	ageEff := draw(cfg.NumAge, cfg.AgeScale)
	incEff := draw(cfg.NumIncome, cfg.IncomeScale)
	stEff := draw(cfg.NumState, cfg.StateScale)

	tbl, err := mrp.NewCellTable(cfg.NumAge, cfg.NumIncome, cfg.NumState, statecov)
	if err != nil {
		return nil, nil, nil, err
	}

	// Population cell counts, uneven but positive
	gam := distuv.Gamma{Alpha: 2, Beta: 2, Src: rng}
	for i := range tbl.Count {
		tbl.Count[i] = math.Ceil(cfg.CellSize * gam.Rand())
	}

	// True outcome probability per cell
	cellprob := make([]float64, tbl.NumCells())
	for i := range cellprob {
		eta := cfg.Intercept + cfg.CovSlope*statecov[tbl.State[i]]
		eta += ageEff[tbl.Age[i]] + incEff[tbl.Income[i]] + stEff[tbl.State[i]]
		cellprob[i] = expit(eta)
	}

	// Sampling weights: population share tilted by the selection
	// bias toward upper age and income groups.
	cum := make([]float64, tbl.NumCells())
	var wtot float64
	for i := range cum {
		af := float64(tbl.Age[i]) / float64(cfg.NumAge-1)
		kf := float64(tbl.Income[i]) / float64(cfg.NumIncome-1)
		w := tbl.Count[i] * math.Exp(cfg.Bias*(af+kf-1))
		wtot += w
		cum[i] = wtot
	}

	// Draw the survey
	n := cfg.NumObs
	y := make([]float64, n)
	age := make([]float64, n)
	income := make([]float64, n)
	state := make([]float64, n)
	stcov := make([]float64, n)

	for i := 0; i < n; i++ {
		u := rng.Float64() * wtot
		j := sort.SearchFloat64s(cum, u)
		if j == tbl.NumCells() {
			j--
		}

		age[i] = float64(tbl.Age[j])
		income[i] = float64(tbl.Income[j])
		state[i] = float64(tbl.State[j])
		stcov[i] = statecov[tbl.State[j]]

		bern := distuv.Bernoulli{P: cellprob[j], Src: rng}
		y[i] = bern.Rand()
	}

	da := [][]float64{y, age, income, state, stcov}
	na := []string{"y", "age", "income", "state", "stcov"}
	ds, err := mrp.NewDataset(da, na)
	if err != nil {
		return nil, nil, nil, err
	}

	truth := &Truth{
		Intercept: cfg.Intercept,
		CovSlope:  cfg.CovSlope,
		AgeEff:    ageEff,
		IncomeEff: incEff,
		StateEff:  stEff,
		StateCov:  statecov,
		CellProb:  cellprob,
	}

	return ds, tbl, truth, nil
}
