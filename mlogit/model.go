// Package mlogit implements a hierarchical Bayesian logistic
// regression model for a binary survey outcome.
//
// The log odds of the outcome is the sum of an intercept, a fixed
// slope on a state-level covariate, and random effects for the age,
// income, and state grouping factors.  Each family of random effects
// has its own scale parameter, sampled on the log scale.  The model
// value implements the infergo model interface, so the posterior can
// be simulated with HMC or NUTS; the gradient of the log posterior is
// computed analytically.
package mlogit

import (
	"fmt"
	"log"
	"math"

	"bitbucket.org/dtolpin/infergo/dist"
	"gonum.org/v1/gonum/optimize"

	"github.com/jgabry/mrp"
)

// Positions of the scalar parameters in the parameter vector.  The
// group effects follow, in blocks ordered age, income, state.
const (
	iceptPos = iota
	covPos
	lsAgePos
	lsIncomePos
	lsStatePos
	effStart
)

// Config defines configuration parameters for the hierarchical
// logistic regression model.
type Config struct {

	// Names of the grouping variables and the state-level
	// covariate in the dataset
	AgeVar    string
	IncomeVar string
	StateVar  string
	CovVar    string

	// Numbers of levels of the grouping factors.  If zero, the
	// number of levels is inferred from the data.
	NumAge    int
	NumIncome int
	NumState  int

	// Prior standard deviation of the fixed effects
	FixedScale float64

	// Prior mean and standard deviation of the log scales of the
	// group random effects
	ScaleMu float64
	ScaleSD float64

	// A logger to which logging information is written
	Log *log.Logger

	// OptMethod is the Gonum optimization method used for MAP
	// estimation.
	OptMethod optimize.Method

	// OptSettings configures the Gonum optimization routine.
	OptSettings *optimize.Settings
}

// DefaultConfig returns a default configuration for the model.
func DefaultConfig() *Config {
	return &Config{
		AgeVar:     "age",
		IncomeVar:  "income",
		StateVar:   "state",
		CovVar:     "stcov",
		FixedScale: 3,
		ScaleMu:    0,
		ScaleSD:    1,
	}
}

// Model represents a hierarchical Bayesian logistic regression model.
type Model struct {

	// The names of the variables.  The order agrees with the order
	// of 'data'.
	varnames []string

	// The data to which the model is fit
	data [][]float64

	// Positions of the outcome, grouping variables, and covariate
	ypos   int
	agepos int
	incpos int
	stpos  int
	covpos int

	// Numbers of levels of the grouping factors
	nage int
	ninc int
	nst  int

	// Positions where the income and state effect blocks begin
	incStart int
	stStart  int

	// Prior settings
	fixedScale float64
	scaleMu    float64
	scaleSD    float64

	optmethod   optimize.Method
	optsettings *optimize.Settings

	log *log.Logger

	// The parameter point of the last call to Observe, for
	// Gradient
	x []float64
}

// NewModel returns a Model for the given dataset and outcome
// variable.
func NewModel(data *mrp.Dataset, outcome string, config *Config) (*Model, error) {

	if config == nil {
		config = DefaultConfig()
	}

	getpos := func(vn string) (int, error) {
		p := data.Pos(vn)
		if p == -1 {
			return -1, fmt.Errorf("mlogit: variable '%s' not found in dataset", vn)
		}
		return p, nil
	}

	m := &Model{
		varnames:    data.Names(),
		data:        data.Data(),
		fixedScale:  config.FixedScale,
		scaleMu:     config.ScaleMu,
		scaleSD:     config.ScaleSD,
		optmethod:   config.OptMethod,
		optsettings: config.OptSettings,
		log:         config.Log,
	}

	var err error
	if m.ypos, err = getpos(outcome); err != nil {
		return nil, err
	}
	if m.agepos, err = getpos(config.AgeVar); err != nil {
		return nil, err
	}
	if m.incpos, err = getpos(config.IncomeVar); err != nil {
		return nil, err
	}
	if m.stpos, err = getpos(config.StateVar); err != nil {
		return nil, err
	}
	if m.covpos, err = getpos(config.CovVar); err != nil {
		return nil, err
	}

	if m.fixedScale <= 0 || m.scaleSD <= 0 {
		return nil, fmt.Errorf("mlogit: prior scales must be positive")
	}

	for _, y := range m.data[m.ypos] {
		if y != 0 && y != 1 {
			return nil, fmt.Errorf("mlogit: outcome variable '%s' is not binary", outcome)
		}
	}

	checklevels := func(vn string, pos, nlev int) (int, error) {
		mx := -1
		for _, v := range m.data[pos] {
			iv := int(v)
			if float64(iv) != v || iv < 0 {
				return 0, fmt.Errorf("mlogit: variable '%s' is not coded as level indices", vn)
			}
			if iv > mx {
				mx = iv
			}
		}
		if nlev == 0 {
			nlev = mx + 1
		}
		if mx >= nlev {
			return 0, fmt.Errorf("mlogit: variable '%s' has level %d, but only %d levels are defined",
				vn, mx, nlev)
		}
		return nlev, nil
	}

	if m.nage, err = checklevels(config.AgeVar, m.agepos, config.NumAge); err != nil {
		return nil, err
	}
	if m.ninc, err = checklevels(config.IncomeVar, m.incpos, config.NumIncome); err != nil {
		return nil, err
	}
	if m.nst, err = checklevels(config.StateVar, m.stpos, config.NumState); err != nil {
		return nil, err
	}

	m.incStart = effStart + m.nage
	m.stStart = m.incStart + m.ninc

	return m, nil
}

// NumObs returns the number of observations in the data set.
func (m *Model) NumObs() int {
	return len(m.data[m.ypos])
}

// NumParams returns the length of the parameter vector: two fixed
// effects, three log scales, and the group effects.
func (m *Model) NumParams() int {
	return effStart + m.nage + m.ninc + m.nst
}

// NumAge, NumIncome, and NumState return the numbers of levels of the
// grouping factors.
func (m *Model) NumAge() int    { return m.nage }
func (m *Model) NumIncome() int { return m.ninc }
func (m *Model) NumState() int  { return m.nst }

// AgeEff returns the block of age effects within a parameter vector.
func (m *Model) AgeEff(x []float64) []float64 {
	return x[effStart:m.incStart]
}

// IncomeEff returns the block of income effects within a parameter
// vector.
func (m *Model) IncomeEff(x []float64) []float64 {
	return x[m.incStart:m.stStart]
}

// StateEff returns the block of state effects within a parameter
// vector.
func (m *Model) StateEff(x []float64) []float64 {
	return x[m.stStart:m.NumParams()]
}

// ParamNames returns names for the elements of the parameter vector.
func (m *Model) ParamNames() []string {

	names := []string{"icept", "stcov", "log_s_age", "log_s_income", "log_s_state"}
	for k := 0; k < m.nage; k++ {
		names = append(names, fmt.Sprintf("age=%d", k))
	}
	for k := 0; k < m.ninc; k++ {
		names = append(names, fmt.Sprintf("income=%d", k))
	}
	for k := 0; k < m.nst; k++ {
		names = append(names, fmt.Sprintf("state=%d", k))
	}

	return names
}

// softplus returns log(1 + exp(x)) without overflowing for large x.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

func expit(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// linpred returns the linear predictor for observation i at the
// parameter point x.
func (m *Model) linpred(x []float64, i int) float64 {
	eta := x[iceptPos] + x[covPos]*m.data[m.covpos][i]
	eta += x[effStart+int(m.data[m.agepos][i])]
	eta += x[m.incStart+int(m.data[m.incpos][i])]
	eta += x[m.stStart+int(m.data[m.stpos][i])]
	return eta
}

// LogLike returns the data log-likelihood at the given parameter
// point, excluding the priors and the random effect densities.
func (m *Model) LogLike(x []float64) float64 {

	y := m.data[m.ypos]

	var ll float64
	for i := range y {
		eta := m.linpred(x, i)
		ll += y[i]*eta - softplus(eta)
	}

	return ll
}

// logPrior returns the log density of the priors and of the group
// random effects at the given parameter point.
func (m *Model) logPrior(x []float64) float64 {

	ll := dist.Normal.Logp(0, m.fixedScale, x[iceptPos])
	ll += dist.Normal.Logp(0, m.fixedScale, x[covPos])

	for _, j := range []int{lsAgePos, lsIncomePos, lsStatePos} {
		ll += dist.Normal.Logp(m.scaleMu, m.scaleSD, x[j])
	}

	ll += dist.Normal.Logps(0, math.Exp(x[lsAgePos]), m.AgeEff(x)...)
	ll += dist.Normal.Logps(0, math.Exp(x[lsIncomePos]), m.IncomeEff(x)...)
	ll += dist.Normal.Logps(0, math.Exp(x[lsStatePos]), m.StateEff(x)...)

	return ll
}

// LogPost returns the unnormalized log posterior at the given
// parameter point.
func (m *Model) LogPost(x []float64) float64 {
	return m.logPrior(x) + m.LogLike(x)
}

// Observe implements the infergo model interface, returning the
// unnormalized log posterior.
func (m *Model) Observe(x []float64) float64 {

	if len(x) != m.NumParams() {
		msg := fmt.Sprintf("mlogit: parameter vector has length %d, expected %d",
			len(x), m.NumParams())
		panic(msg)
	}

	if m.x == nil {
		m.x = make([]float64, len(x))
	}
	copy(m.x, x)

	return m.LogPost(x)
}

// Gradient returns the gradient of the log posterior at the point of
// the preceding call to Observe.  Together with Observe this lets
// infergo use the analytic gradient instead of automatic
// differentiation.
func (m *Model) Gradient() []float64 {

	if m.x == nil {
		panic("mlogit: Gradient called before Observe")
	}

	grad := make([]float64, m.NumParams())
	m.Score(m.x, grad)

	return grad
}

// Score computes the gradient of the log posterior at the given
// parameter point, storing it in the provided slice.
func (m *Model) Score(x, score []float64) {

	if len(score) != m.NumParams() {
		panic("mlogit: score slice has the wrong length")
	}
	for i := range score {
		score[i] = 0
	}

	// Data part: each observation contributes its residual to the
	// intercept, the covariate slope, and its three group effects.
	y := m.data[m.ypos]
	for i := range y {
		r := y[i] - expit(m.linpred(x, i))
		score[iceptPos] += r
		score[covPos] += r * m.data[m.covpos][i]
		score[effStart+int(m.data[m.agepos][i])] += r
		score[m.incStart+int(m.data[m.incpos][i])] += r
		score[m.stStart+int(m.data[m.stpos][i])] += r
	}

	// Priors on the fixed effects
	fs2 := m.fixedScale * m.fixedScale
	score[iceptPos] -= x[iceptPos] / fs2
	score[covPos] -= x[covPos] / fs2

	// Group effect densities and the priors on the log scales.
	// For a block with scale s = exp(u), d/du of the block log
	// density is sum(a^2)/s^2 - n.
	ss2 := m.scaleSD * m.scaleSD
	block := func(upos int, eff []float64, off int) {
		s2 := math.Exp(2 * x[upos])
		var q float64
		for k, a := range eff {
			score[off+k] -= a / s2
			q += a * a / s2
		}
		score[upos] += q - float64(len(eff))
		score[upos] -= (x[upos] - m.scaleMu) / ss2
	}
	block(lsAgePos, m.AgeEff(x), effStart)
	block(lsIncomePos, m.IncomeEff(x), m.incStart)
	block(lsStatePos, m.StateEff(x), m.stStart)
}
