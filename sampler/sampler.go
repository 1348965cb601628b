// Package sampler drives posterior simulation for infergo models with
// the No-U-Turn sampler, running several independent chains and
// collecting the kept draws with convergence diagnostics.
package sampler

import (
	"fmt"
	"log"
	"math"
	"sync"

	"bitbucket.org/dtolpin/infergo/infer"
	"bitbucket.org/dtolpin/infergo/model"
	"golang.org/x/exp/rand"

	"github.com/jgabry/mrp"
)

// Config defines configuration parameters for posterior simulation.
type Config struct {

	// Number of warmup iterations discarded from each chain, after
	// step size adaptation
	Warmup int

	// Number of draws kept per chain
	Draws int

	// Thinning interval; 1 keeps every draw
	Thin int

	// Initial NUTS step size
	Eps float64

	// Maximum tree depth
	MaxDepth int

	// Target tree depth for step size adaptation
	TargetDepth float64

	// Scale of the normal jitter applied to the initial point of
	// each chain
	Jitter float64

	// Seed for the chain initialization jitter
	Seed uint64

	// A logger to which logging information is written
	Log *log.Logger
}

// DefaultConfig returns a default sampling configuration.
func DefaultConfig() *Config {
	return &Config{
		Warmup:      500,
		Draws:       500,
		Thin:        1,
		Eps:         0.1,
		MaxDepth:    10,
		TargetDepth: 5,
		Jitter:      0.1,
		Seed:        1,
	}
}

// Result holds the posterior draws and diagnostics from a set of
// chains.
type Result struct {

	// All kept draws, pooled over chains
	Draws [][]float64

	// ChainDraws[c] holds the kept draws of chain c
	ChainDraws [][][]float64

	// Split-Rhat per parameter
	Rhat []float64

	// Effective sample size per parameter
	ESS []float64
}

// Run simulates the posterior of a model with NUTS.  One chain is run
// per element of models; the elements must be independent model
// values, since chains run concurrently and infergo models are
// stateful.  All chains start from a jittered copy of init.
func Run(models []model.Model, init []float64, cfg *Config) (*Result, error) {

	if cfg == nil {
		cfg = DefaultConfig()
	}

	nchain := len(models)
	if nchain == 0 {
		return nil, fmt.Errorf("sampler: no models given")
	}
	if len(init) == 0 {
		return nil, fmt.Errorf("sampler: no initial point given")
	}
	if cfg.Draws < 1 || cfg.Warmup < 0 || cfg.Thin < 1 {
		return nil, fmt.Errorf("sampler: invalid iteration counts")
	}

	// A posterior that is not finite at the starting point cannot
	// be sampled.
	if lp := models[0].Observe(init); math.IsNaN(lp) || math.IsInf(lp, 0) {
		return nil, fmt.Errorf("sampler: log posterior is %v at the initial point", lp)
	}

	chains := make([][][]float64, nchain)

	var wg sync.WaitGroup
	for c := 0; c < nchain; c++ {

		wg.Add(1)
		go func(c int, m model.Model) {
			defer wg.Done()
			chains[c] = runChain(m, init, c, cfg)
		}(c, models[c])
	}
	wg.Wait()

	rslt := &Result{
		ChainDraws: chains,
		Rhat:       rhat(chains),
		ESS:        ess(chains),
	}

	for _, ch := range chains {
		rslt.Draws = append(rslt.Draws, ch...)
	}

	if cfg.Log != nil {
		cfg.Log.Printf("sampler: %d chains, %d draws kept\n", nchain, len(rslt.Draws))
	}

	return rslt, nil
}

// runChain runs a single NUTS chain and returns its kept draws.
func runChain(m model.Model, init []float64, chain int, cfg *Config) [][]float64 {

	rng := rand.New(rand.NewSource(cfg.Seed + uint64(chain)))

	x := make([]float64, len(init))
	copy(x, init)
	for j := range x {
		x[j] += cfg.Jitter * rng.NormFloat64()
	}

	nuts := &infer.NUTS{
		Eps:      cfg.Eps,
		MaxDepth: cfg.MaxDepth,
	}

	samples := make(chan []float64)
	nuts.Sample(m, x, samples)

	// Step size adaptation toward the target tree depth.
	da := infer.NewDepthAdapter(cfg.TargetDepth)
	da.Adapt(nuts, samples, 10)

	for i := 0; i < cfg.Warmup; i++ {
		if y := <-samples; len(y) == 0 {
			nuts.Stop()
			return nil
		}
	}

	var draws [][]float64
	for i := 0; i < cfg.Draws; i++ {

		var y []float64
		for t := 0; t < cfg.Thin; t++ {
			y = <-samples
			if len(y) == 0 {
				nuts.Stop()
				return draws
			}
		}

		// The sampler reuses the slice, so the draw must be
		// copied out.
		z := make([]float64, len(y))
		copy(z, y)
		draws = append(draws, z)
	}

	nuts.Stop()

	return draws
}

// Summary returns a summary table of the posterior draws: mean,
// standard deviation, central 95% interval, split-Rhat and effective
// sample size per parameter.
func (rslt *Result) Summary(names []string) *mrp.SummaryTable {

	np := len(names)
	mean := make([]float64, np)
	sd := make([]float64, np)
	lo := make([]float64, np)
	hi := make([]float64, np)

	col := make([]float64, len(rslt.Draws))
	for j := 0; j < np; j++ {
		for i, x := range rslt.Draws {
			col[i] = x[j]
		}
		mean[j], sd[j] = mrp.MeanSD(col)
		lo[j], hi[j] = mrp.CredibleInterval(col, 0.95)
	}

	return &mrp.SummaryTable{
		Title: "Posterior summary",
		Top: []string{
			fmt.Sprintf("Chains:          %d", len(rslt.ChainDraws)),
			fmt.Sprintf("Draws per chain: %d", len(rslt.Draws)/len(rslt.ChainDraws)),
		},
		ColNames: []string{"Parameter", "Mean", "SD", "2.5%", "97.5%", "Rhat", "ESS"},
		ColFmt: []mrp.Fmter{mrp.StringFmt, mrp.FloatFmt, mrp.FloatFmt, mrp.FloatFmt,
			mrp.FloatFmt, mrp.FloatFmt, mrp.FloatFmt},
		Cols: []interface{}{names, mean, sd, lo, hi, rslt.Rhat, rslt.ESS},
	}
}
