package mlogit

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// MAPResult holds the result of maximum a-posteriori estimation.
type MAPResult struct {

	// The posterior mode
	Params []float64

	// The log posterior at the mode
	LogPost float64
}

// MAP maximizes the log posterior using gradient-based optimization.
// If start is nil, the optimization starts from zero.  The result is
// a useful starting point for the MCMC chains.
func (m *Model) MAP(start []float64) (*MAPResult, error) {

	nvar := m.NumParams()

	if start == nil {
		start = make([]float64, nvar)
	}

	if m.log != nil {
		m.log.Print("MAP estimation using gradient optimization\n")
	}

	p := optimize.Problem{
		Func: func(x []float64) float64 {
			return -m.LogPost(x)
		},
		Grad: func(grad, x []float64) {
			m.Score(x, grad)
			floats.Scale(-1, grad)
		},
	}

	settings := m.optsettings
	if settings == nil {
		settings = &optimize.Settings{}
		settings.GradientThreshold = 1e-6
	}

	method := m.optmethod
	if method == nil {
		method = &optimize.BFGS{}
	}

	optrslt, err := optimize.Minimize(p, start, settings, method)
	if err != nil {
		return nil, err
	}
	if err = optrslt.Status.Err(); err != nil {
		return nil, err
	}

	params := make([]float64, nvar)
	copy(params, optrslt.X)

	return &MAPResult{
		Params:  params,
		LogPost: -optrslt.F,
	}, nil
}
